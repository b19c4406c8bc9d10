// Package ledger persists the realized old->new rename mapping for a
// directory. The ledger is written in full before any rename executes, so a
// crash mid-apply always leaves a complete record of what was intended.
package ledger

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"episodic/internal/fileutil"
	"episodic/internal/services"
)

// BackupFileName is the ledger's fixed name inside the target directory.
const BackupFileName = "rename_backup.txt"

// delimiter separates the original and renamed name on each ledger line.
const delimiter = " -> "

// Mapping records a single realized rename.
type Mapping struct {
	Original string
	Renamed  string
}

// Ledger is the parsed content of a directory's backup file.
type Ledger struct {
	Path     string
	Mappings []Mapping
}

// ErrNoLedger is returned by Load when the directory has no backup file.
var ErrNoLedger = errors.New("no backup ledger found")

// PathFor returns the ledger path for a target directory.
func PathFor(dir string) string {
	return filepath.Join(dir, BackupFileName)
}

// Exists reports whether dir contains a backup ledger.
func Exists(dir string) bool {
	info, err := os.Stat(PathFor(dir))
	return err == nil && !info.IsDir()
}

// Load reads and parses the ledger of dir. Mapping order matches file order,
// oldest session first.
func Load(dir string) (*Ledger, error) {
	path := PathFor(dir)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s", ErrNoLedger, dir)
		}
		return nil, services.Wrap(services.ErrPermission, "restore", "open ledger", path, err)
	}
	defer file.Close()

	mappings, err := parse(file)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "restore", "parse ledger", path, err)
	}
	return &Ledger{Path: path, Mappings: mappings}, nil
}

// Append durably records a new session of mappings, preserving all prior
// history. The whole file is rewritten through an atomic temp-file rename so
// a partially written ledger can never be observed.
func Append(dir string, mappings []Mapping) error {
	if len(mappings) == 0 {
		return nil
	}
	for _, m := range mappings {
		if err := validateName(m.Original); err != nil {
			return err
		}
		if err := validateName(m.Renamed); err != nil {
			return err
		}
	}

	path := PathFor(dir)
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrPermission, "apply", "read ledger", path, err)
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, "# session %s %s\n", uuid.NewString(), time.Now().UTC().Format(time.RFC3339))
	for _, m := range mappings {
		buf.WriteString(m.Original)
		buf.WriteString(delimiter)
		buf.WriteString(m.Renamed)
		buf.WriteByte('\n')
	}

	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return services.Wrap(services.ErrPermission, "apply", "write ledger", path, err)
	}
	return nil
}

// Delete removes the ledger file. Missing files are not an error; deletion
// after a restore is an explicit user choice, never automatic.
func Delete(dir string) error {
	err := os.Remove(PathFor(dir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return services.Wrap(services.ErrPermission, "restore", "delete ledger", PathFor(dir), err)
	}
	return nil
}

// parse reads mappings from r, skipping blank lines and # comments. Lines
// without the delimiter are rejected: a ledger that cannot be read exactly
// must not drive renames.
func parse(r io.Reader) ([]Mapping, error) {
	var mappings []Mapping
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		original, renamed, ok := strings.Cut(line, delimiter)
		if !ok {
			return nil, fmt.Errorf("line %d: missing %q delimiter", lineNo, delimiter)
		}
		original = strings.TrimSpace(original)
		renamed = strings.TrimSpace(renamed)
		if original == "" || renamed == "" {
			return nil, fmt.Errorf("line %d: empty filename", lineNo)
		}
		mappings = append(mappings, Mapping{Original: original, Renamed: renamed})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return mappings, nil
}

// validateName refuses names the line format cannot encode unambiguously.
func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return services.Wrap(services.ErrValidation, "apply", "record ledger entry", "empty filename", nil)
	case strings.Contains(name, delimiter):
		return services.Wrap(services.ErrValidation, "apply", "record ledger entry",
			fmt.Sprintf("filename %q contains the ledger delimiter", name), nil)
	case strings.ContainsAny(name, "\n\r"):
		return services.Wrap(services.ErrValidation, "apply", "record ledger entry",
			fmt.Sprintf("filename %q contains a newline", name), nil)
	}
	return nil
}

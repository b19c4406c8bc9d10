// Package renamer executes rename plans and restores directories from their
// backup ledger. All mutations happen under a directory-scoped advisory lock,
// and the ledger is written before the first rename.
package renamer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"episodic/internal/ledger"
	"episodic/internal/logging"
	"episodic/internal/planner"
	"episodic/internal/services"
)

// LockFileName is the per-directory advisory lock. The leading dot keeps it
// out of directory scans.
const LockFileName = ".episodic.lock"

// Status classifies the outcome of one file during apply or restore.
type Status string

const (
	StatusRenamed         Status = "renamed"
	StatusFailed          Status = "failed"
	StatusSkippedConflict Status = "skipped-conflict"
	StatusNoop            Status = "noop"
	StatusRestored        Status = "restored"
	StatusRestoreConflict Status = "restore-conflict"
	StatusMissing         Status = "missing"
)

// Outcome reports what happened to one file.
type Outcome struct {
	Original string
	Target   string
	Status   Status
	// Reason explains failures, skips, and conflicts.
	Reason string
}

// RunRecord summarizes a completed apply or restore for the history store.
type RunRecord struct {
	Kind       string
	Directory  string
	Show       string
	Season     int
	Outcomes   []Outcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// Counts tallies outcomes into renamed, failed, and skipped buckets.
// Restores count as renames; noops, conflicts, and missing files as skips.
func Counts(outcomes []Outcome) (renamed, failed, skipped int) {
	for _, outcome := range outcomes {
		switch outcome.Status {
		case StatusRenamed, StatusRestored:
			renamed++
		case StatusFailed:
			failed++
		default:
			skipped++
		}
	}
	return renamed, failed, skipped
}

// Recorder persists run records. Recording is best effort; failures are
// logged and never abort a run.
type Recorder interface {
	RecordRun(ctx context.Context, record RunRecord) error
}

// Options configure an Engine.
type Options struct {
	Logger   *slog.Logger
	Recorder Recorder
}

// Engine applies plans and restores directories.
type Engine struct {
	logger   *slog.Logger
	recorder Recorder
}

// New constructs an Engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		logger:   logging.NewComponentLogger(logger, "renamer"),
		recorder: opts.Recorder,
	}
}

// Apply executes the conflict-free entries of plan, ordering renames so a
// target name still held by another plan entry is vacated first. The full
// ledger session is persisted before any rename runs, so every realized
// rename is recoverable even after a mid-run crash. Individual failures do
// not stop the run; they surface in the outcomes.
func (e *Engine) Apply(ctx context.Context, plan *planner.Plan) ([]Outcome, error) {
	started := time.Now().UTC()
	unlock, err := e.acquireLock(plan.Directory, "apply")
	if err != nil {
		return nil, err
	}
	defer unlock()

	outcomes := make([]Outcome, len(plan.Entries))
	var work []renameJob
	var mappings []ledger.Mapping
	for i, entry := range plan.Entries {
		outcomes[i] = Outcome{Original: entry.File.Name, Target: entry.Target}
		switch {
		case entry.Conflict:
			outcomes[i].Status = StatusSkippedConflict
			outcomes[i].Reason = entry.ConflictReason
		case entry.Target == entry.File.Name:
			outcomes[i].Status = StatusNoop
			outcomes[i].Reason = "already named correctly"
		default:
			work = append(work, renameJob{index: i, original: entry.File.Name, source: entry.File.Name, target: entry.Target})
			mappings = append(mappings, ledger.Mapping{Original: entry.File.Name, Renamed: entry.Target})
		}
	}

	if len(work) > 0 {
		if err := ledger.Append(plan.Directory, mappings); err != nil {
			return nil, err
		}
		e.logger.Info("ledger written", logging.String("dir", plan.Directory), logging.Int("entries", len(mappings)))
	}

	e.executeOrdered(ctx, plan.Directory, work, outcomes, func(j renameJob) Outcome {
		outcome := e.renameOne(plan.Directory, j.source, j.target)
		outcome.Original = j.original
		return outcome
	})

	e.record(ctx, RunRecord{
		Kind:       "apply",
		Directory:  plan.Directory,
		Show:       plan.Params.Show,
		Season:     plan.Params.Season,
		Outcomes:   outcomes,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	})
	return outcomes, nil
}

// renameJob is one pending move. source tracks the file's current on-disk
// name, which diverges from original once a cycle forces a temporary park.
type renameJob struct {
	index    int
	original string
	source   string
	target   string
}

// executeOrdered runs jobs so that a target name held by another pending
// job's source is vacated first. Renumbering shifts (E01->E02 while
// E02->E03) form chains that this ordering resolves; mutual swaps form
// cycles, opened by parking one file under a temporary name. Each finished
// job releases its source name even on failure, so dependents run and report
// their own outcome instead of waiting forever.
func (e *Engine) executeOrdered(ctx context.Context, dir string, work []renameJob, outcomes []Outcome, exec func(renameJob) Outcome) {
	holders := make(map[string]int, len(work))
	for i, j := range work {
		holders[strings.ToLower(j.source)] = i
	}

	done := make([]bool, len(work))
	remaining := len(work)
	for remaining > 0 {
		progressed := false
		for i := range work {
			if done[i] {
				continue
			}
			j := work[i]
			if holder, held := holders[strings.ToLower(j.target)]; held && holder != i {
				continue
			}
			if err := ctx.Err(); err != nil {
				outcomes[j.index].Status = StatusFailed
				outcomes[j.index].Reason = err.Error()
			} else {
				outcomes[j.index] = exec(j)
			}
			delete(holders, strings.ToLower(j.source))
			done[i] = true
			remaining--
			progressed = true
		}
		if progressed {
			continue
		}

		// Every pending job waits on another one: a rename cycle. Park the
		// first member under a hidden temporary name to break it.
		for i := range work {
			if done[i] {
				continue
			}
			j := work[i]
			park := fmt.Sprintf(".%s.cycle-%s", j.target, uuid.NewString()[:8])
			if err := os.Rename(filepath.Join(dir, j.source), filepath.Join(dir, park)); err != nil {
				outcomes[j.index].Status = StatusFailed
				outcomes[j.index].Reason = err.Error()
				done[i] = true
				remaining--
			} else {
				work[i].source = park
				e.logger.Debug("parked for rename cycle",
					logging.String("from", j.source),
					logging.String("to", park))
			}
			delete(holders, strings.ToLower(j.source))
			break
		}
	}
}

// renameOne performs a single guarded rename. The target must still be
// absent at execution time; an earlier plan entry may have legitimately
// vacated or occupied it since planning.
func (e *Engine) renameOne(dir, source, target string) Outcome {
	outcome := Outcome{Original: source, Target: target}
	sourcePath := filepath.Join(dir, source)
	targetPath := filepath.Join(dir, target)

	if _, err := os.Lstat(sourcePath); err != nil {
		outcome.Status = StatusFailed
		if errors.Is(err, fs.ErrNotExist) {
			outcome.Reason = "source no longer exists"
		} else {
			outcome.Reason = err.Error()
		}
		return outcome
	}
	if _, err := os.Lstat(targetPath); err == nil {
		outcome.Status = StatusFailed
		outcome.Reason = fmt.Sprintf("target %q already exists", target)
		return outcome
	}
	if err := os.Rename(sourcePath, targetPath); err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = err.Error()
		e.logger.Warn("rename failed",
			logging.String("from", source),
			logging.String("to", target),
			logging.Error(err))
		return outcome
	}
	outcome.Status = StatusRenamed
	e.logger.Info("renamed", logging.String("from", source), logging.String("to", target))
	return outcome
}

// Restore undoes ledgered renames newest first, with the same vacancy
// ordering as apply. Files whose renamed form
// is gone are reported and skipped; files whose original name is occupied
// are left alone. Running restore twice is safe: the second pass finds
// everything already in place and performs no renames.
func (e *Engine) Restore(ctx context.Context, dir string, deleteBackup bool) ([]Outcome, error) {
	started := time.Now().UTC()
	unlock, err := e.acquireLock(dir, "restore")
	if err != nil {
		return nil, err
	}
	defer unlock()

	led, err := ledger.Load(dir)
	if err != nil {
		if errors.Is(err, ledger.ErrNoLedger) {
			return nil, services.Wrap(services.ErrNotFound, "restore", "load ledger", dir, err)
		}
		return nil, err
	}

	outcomes := make([]Outcome, len(led.Mappings))
	work := make([]renameJob, 0, len(led.Mappings))
	for i := len(led.Mappings) - 1; i >= 0; i-- {
		mapping := led.Mappings[i]
		idx := len(work)
		outcomes[idx] = Outcome{Original: mapping.Original, Target: mapping.Renamed}
		work = append(work, renameJob{index: idx, original: mapping.Renamed, source: mapping.Renamed, target: mapping.Original})
	}

	e.executeOrdered(ctx, dir, work, outcomes, func(j renameJob) Outcome {
		outcome := e.restoreOne(dir, ledger.Mapping{Original: j.target, Renamed: j.source})
		outcome.Target = j.original
		return outcome
	})

	if deleteBackup {
		if err := ledger.Delete(dir); err != nil {
			return outcomes, err
		}
		e.logger.Info("ledger deleted", logging.String("dir", dir))
	}

	e.record(ctx, RunRecord{
		Kind:       "restore",
		Directory:  dir,
		Outcomes:   outcomes,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	})
	return outcomes, nil
}

func (e *Engine) restoreOne(dir string, mapping ledger.Mapping) Outcome {
	outcome := Outcome{Original: mapping.Original, Target: mapping.Renamed}
	renamedPath := filepath.Join(dir, mapping.Renamed)
	originalPath := filepath.Join(dir, mapping.Original)

	if _, err := os.Lstat(renamedPath); err != nil {
		if _, statErr := os.Lstat(originalPath); statErr == nil {
			outcome.Status = StatusNoop
			outcome.Reason = "already restored"
			return outcome
		}
		outcome.Status = StatusMissing
		outcome.Reason = fmt.Sprintf("%q not found", mapping.Renamed)
		return outcome
	}
	if mapping.Renamed == mapping.Original {
		outcome.Status = StatusNoop
		return outcome
	}
	if _, err := os.Lstat(originalPath); err == nil {
		outcome.Status = StatusRestoreConflict
		outcome.Reason = fmt.Sprintf("%q already exists", mapping.Original)
		return outcome
	}
	if err := os.Rename(renamedPath, originalPath); err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = err.Error()
		return outcome
	}
	outcome.Status = StatusRestored
	e.logger.Info("restored", logging.String("from", mapping.Renamed), logging.String("to", mapping.Original))
	return outcome
}

// acquireLock takes the directory's advisory lock without blocking. A held
// lock means another process is mutating the directory right now.
func (e *Engine) acquireLock(dir, operation string) (func(), error) {
	lock := flock.New(filepath.Join(dir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrPermission, operation, "acquire directory lock", dir, err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConflict, operation, "acquire directory lock",
			fmt.Sprintf("%s is locked by another process", dir), nil)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			e.logger.Warn("unlock failed", logging.String("dir", dir), logging.Error(err))
			return
		}
		if err := os.Remove(lock.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			e.logger.Debug("lock file cleanup failed", logging.String("dir", dir), logging.Error(err))
		}
	}, nil
}

func (e *Engine) record(ctx context.Context, record RunRecord) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordRun(ctx, record); err != nil {
		e.logger.Warn("history recording failed", logging.Error(err))
	}
}

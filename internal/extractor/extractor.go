// Package extractor infers episode identities from filenames through a local
// completion model. Extraction only reads names and produces structured
// results; planning and renaming happen elsewhere.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"episodic/internal/logging"
	"episodic/internal/planner"
	"episodic/internal/services"
	"episodic/internal/services/ollama"
)

// CompletionClient is the completion surface the extractor needs.
type CompletionClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options configure an Extractor.
type Options struct {
	// Workers bounds the number of in-flight completion requests. Values
	// below 1 run a single worker.
	Workers int
	Logger  *slog.Logger
}

// Extractor runs per-file identity extraction and batch show detection.
type Extractor struct {
	client  CompletionClient
	workers int
	logger  *slog.Logger
}

// New constructs an Extractor around a completion client.
func New(client CompletionClient, opts Options) *Extractor {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{
		client:  client,
		workers: workers,
		logger:  logging.NewComponentLogger(logger, "extractor"),
	}
}

// Result is the extraction outcome for one filename. Err is set when no
// usable identity could be obtained; the identity is never guessed.
type Result struct {
	Filename string
	Identity planner.Identity
	Err      error
}

// Extract resolves an identity for each filename. Results preserve input
// order regardless of worker scheduling. Cancelling ctx stops new requests;
// unprocessed entries carry the context error.
func (e *Extractor) Extract(ctx context.Context, filenames []string) []Result {
	results := make([]Result, len(filenames))
	for i, name := range filenames {
		results[i] = Result{Filename: name}
	}
	if len(filenames) == 0 {
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx].Err = services.Wrap(services.ErrTimeout, "extraction", "generate completion", filenames[idx], err)
					continue
				}
				identity, err := e.extractOne(ctx, filenames[idx])
				if err != nil {
					results[idx].Err = err
					continue
				}
				results[idx].Identity = identity
			}
		}()
	}
	for i := range filenames {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	e.fillMissingShows(results)
	return results
}

// extractOne asks the model for one file's identity, retrying once with a
// corrective prompt when the completion is not decodable JSON.
func (e *Extractor) extractOne(ctx context.Context, filename string) (planner.Identity, error) {
	content, err := e.client.Generate(ctx, identityPrompt(filename))
	if err != nil {
		return planner.Identity{}, services.Wrap(services.ErrExternalTool, "extraction", "generate completion", filename, err)
	}

	var raw rawIdentity
	decodeErr := ollama.DecodeJSON(content, &raw)
	repaired := false
	if decodeErr != nil {
		e.logger.Debug("retrying with corrective prompt",
			logging.String("file", filename),
			logging.String("snippet", ollama.SummarizeSnippet(content)))
		content, err = e.client.Generate(ctx, correctivePrompt(filename, content))
		if err != nil {
			return planner.Identity{}, services.Wrap(services.ErrExternalTool, "extraction", "generate completion", filename, err)
		}
		if err := ollama.DecodeJSON(content, &raw); err != nil {
			return planner.Identity{}, services.Wrap(services.ErrValidation, "extraction", "decode completion",
				fmt.Sprintf("%s: not valid JSON after retry", filename), err)
		}
		repaired = true
	}

	identity, coerced, err := raw.toIdentity()
	if err != nil {
		return planner.Identity{}, services.Wrap(services.ErrValidation, "extraction", "validate identity", filename, err)
	}
	identity.Source = planner.SourceLLMInferred
	if repaired || coerced {
		identity.Source = planner.SourceLLMRepaired
	}
	return identity, nil
}

// fillMissingShows backfills an empty show name from the batch consensus.
// Only the show is borrowed; season and episode numbers are never invented.
func (e *Extractor) fillMissingShows(results []Result) {
	counts := make(map[string]int)
	for _, res := range results {
		if res.Err == nil && res.Identity.Show != "" {
			counts[res.Identity.Show]++
		}
	}
	consensus := ""
	best := 0
	for show, n := range counts {
		if n > best {
			consensus, best = show, n
		}
	}
	if consensus == "" {
		return
	}
	for i := range results {
		res := &results[i]
		if res.Err != nil || res.Identity.Show != "" {
			continue
		}
		if res.Identity.Season < 1 || res.Identity.Episode < 0 {
			continue
		}
		res.Identity.Show = consensus
		res.Identity.Source = planner.SourceLLMRepaired
	}
}

// ShowInfo is the batch-level detection result.
type ShowInfo struct {
	Show         string
	Season       int
	StartEpisode int
	Confidence   float64
}

// maxDetectFiles caps how many filenames feed the detection prompt; a sample
// is enough to identify a season.
const maxDetectFiles = 20

// DetectShow infers the show, season, and starting episode for a whole
// directory from a sample of its filenames.
func (e *Extractor) DetectShow(ctx context.Context, filenames []string) (ShowInfo, error) {
	if len(filenames) == 0 {
		return ShowInfo{}, services.Wrap(services.ErrValidation, "extraction", "detect show", "no filenames supplied", nil)
	}
	sample := filenames
	if len(sample) > maxDetectFiles {
		sample = sample[:maxDetectFiles]
	}

	content, err := e.client.Generate(ctx, detectPrompt(sample))
	if err != nil {
		return ShowInfo{}, services.Wrap(services.ErrExternalTool, "extraction", "detect show", "completion failed", err)
	}

	var raw rawShowInfo
	if err := ollama.DecodeJSON(content, &raw); err != nil {
		content, err = e.client.Generate(ctx, correctivePrompt(strings.Join(sample, ", "), content))
		if err != nil {
			return ShowInfo{}, services.Wrap(services.ErrExternalTool, "extraction", "detect show", "completion failed", err)
		}
		if err := ollama.DecodeJSON(content, &raw); err != nil {
			return ShowInfo{}, services.Wrap(services.ErrValidation, "extraction", "detect show", "not valid JSON after retry", err)
		}
	}

	info, err := raw.toShowInfo()
	if err != nil {
		return ShowInfo{}, services.Wrap(services.ErrValidation, "extraction", "detect show", "unusable detection result", err)
	}
	e.logger.Info("detected show",
		logging.String("show", info.Show),
		logging.Int("season", info.Season),
		logging.Int("start_episode", info.StartEpisode))
	return info, nil
}

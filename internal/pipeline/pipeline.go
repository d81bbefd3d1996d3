// Package pipeline orchestrates one identifier through resolution, content
// extraction, classification, and the idempotent write-back.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"modtriage/internal/cache"
	"modtriage/internal/classify"
	"modtriage/internal/extract"
	"modtriage/internal/llm"
	"modtriage/internal/model"
	"modtriage/internal/resolve"
	"modtriage/internal/store"
	"modtriage/internal/worker"
)

// Pipeline drives the linear state machine
// Resolving -> (ContentReady | Extracting) -> Classifying -> Persisting.
// Persistence is the final step, so cancellation before it leaves no
// external side effect.
type Pipeline struct {
	store      store.Store
	source     extract.Source
	classifier *classify.Classifier
	resolver   *resolve.Resolver
	limiter    *worker.Limiter
	keys       *worker.KeyedMutex
	config     *model.Config
}

// New wires a pipeline from configuration and a ready knowledge store.
func New(cfg *model.Config, kb store.Store) (*Pipeline, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("init LLM provider: %w", err)
	}

	var contentCache cache.Cache
	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		contentCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	return &Pipeline{
		store:      kb,
		source:     extract.NewHTTPSource(cfg.HTTP, contentCache, cfg.Cache.DiskTTL),
		classifier: classify.New(provider, cfg.Classify),
		resolver:   resolve.New(kb, cfg.Resolve),
		limiter:    worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize),
		keys:       worker.NewKeyedMutex(),
		config:     cfg,
	}, nil
}

// NewWithCollaborators wires a pipeline from explicit collaborators.
// Used by tests and callers that manage their own providers.
func NewWithCollaborators(cfg *model.Config, kb store.Store, source extract.Source, classifier *classify.Classifier) *Pipeline {
	return &Pipeline{
		store:      kb,
		source:     source,
		classifier: classifier,
		resolver:   resolve.New(kb, cfg.Resolve),
		limiter:    worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize),
		keys:       worker.NewKeyedMutex(),
		config:     cfg,
	}
}

// Process resolves, classifies, and persists one identifier. Every failure
// carries the stage and identifier it occurred for; ambiguity surfaces the
// ranked candidate list and is never auto-resolved.
func (p *Pipeline) Process(ctx context.Context, id model.Identifier) (*model.Outcome, error) {
	// Resolution and a possible create must be serialized per identity so
	// concurrent workers cannot create duplicates for the same mod.
	unlock := p.keys.Lock(id.Key())
	defer unlock()

	// Resolving
	if err := p.limiter.WaitKey(ctx, "knowledgebase"); err != nil {
		return nil, failed(model.StageResolving, id, err)
	}
	match, err := p.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, failed(model.StageResolving, id, err)
	}

	var record model.ModRecord
	created := false
	switch match.Kind {
	case model.MatchUnique:
		record = *match.Record
	case model.MatchAmbiguous:
		return nil, failed(model.StageResolving, id, &model.AmbiguousError{
			Strategy:   match.Strategy,
			Candidates: match.Candidates,
		})
	default:
		record = stubRecord(id)
		created = true
	}

	// ContentReady vs NeedsExtraction
	content := record.Extracted
	if !record.HasContent() {
		url := record.Link
		if url == "" && id.Kind == model.KindModURL {
			url = id.URL
		}
		if url == "" {
			return nil, failed(model.StageExtracting, id, model.ErrNoContentSource)
		}

		if err := p.limiter.Wait(ctx, url); err != nil {
			return nil, failed(model.StageExtracting, id, err)
		}
		extracted, err := p.source.Extract(ctx, url)
		if err != nil {
			return nil, failed(model.StageExtracting, id, err)
		}
		content = extracted
		record.Link = url
	}

	// Classifying. The classifier already retried internally; its errors
	// are terminal here.
	if err := p.limiter.WaitKey(ctx, "inference"); err != nil {
		return nil, failed(model.StageClassifying, id, err)
	}
	classification, err := p.classifier.Classify(ctx, record, *content)
	if err != nil {
		return nil, failed(model.StageClassifying, id, err)
	}
	if err := classification.Validate(); err != nil {
		return nil, failed(model.StageClassifying, id, err)
	}

	// Persisting. Writes target a stable key, so the caller may retry the
	// whole Process call after an I/O failure without duplicating records.
	if err := p.limiter.WaitKey(ctx, "knowledgebase"); err != nil {
		return nil, failed(model.StagePersisting, id, err)
	}

	// Notes is written even when empty: reclassifying a record downward
	// must not leave a stale justification attached to the new priority.
	fields := store.Fields{
		Priority:  &classification.Priority,
		Folder:    classification.Folder,
		Notes:     &classification.Notes,
		Extracted: content,
	}

	if created {
		fields.Name = record.Name
		fields.Creator = record.Creator
		fields.Link = record.Link
		stored, err := p.store.Create(ctx, fields)
		if err != nil {
			return nil, failed(model.StagePersisting, id, err)
		}
		record = *stored
	} else {
		if err := p.store.Update(ctx, record.ID, fields); err != nil {
			return nil, failed(model.StagePersisting, id, err)
		}
		record.Priority = &classification.Priority
		record.Folder = classification.Folder
		record.Notes = classification.Notes
	}
	record.Extracted = content

	return &model.Outcome{
		Record:         record,
		Classification: *classification,
		Created:        created,
	}, nil
}

// stubRecord synthesizes a new record from whatever identifier fields are
// available, for the create path.
func stubRecord(id model.Identifier) model.ModRecord {
	record := model.ModRecord{
		Name:    id.Name,
		Creator: id.Creator,
		Link:    id.URL,
	}
	if record.Name == "" && id.URL != "" {
		record.Name = nameFromURL(id.URL)
	}
	return record
}

// nameFromURL de-slugifies the last path segment of a mod URL into a
// provisional record name.
func nameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]

	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")

	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}

	return last
}

// failed wraps an error with its stage and identifier.
func failed(stage model.Stage, id model.Identifier, err error) error {
	return &model.ProcessError{Stage: stage, Identifier: id, Err: err}
}

// ReportResult writes a one-line outcome summary to stderr, used by the
// CLI after each identifier.
func ReportResult(id model.Identifier, outcome *model.Outcome, err error, verbose bool) {
	switch {
	case err == nil:
		action := "updated"
		if outcome.Created {
			action = "created"
		}
		fmt.Fprintf(os.Stderr, "✓ %s: priority %d, %s (%s)\n",
			outcome.Record.Name, outcome.Classification.Priority, outcome.Classification.Folder, action)
		if verbose {
			fmt.Fprintf(os.Stderr, "    id: %s", outcome.Record.ID)
			if outcome.Classification.Notes != "" {
				fmt.Fprintf(os.Stderr, "  notes: %s", outcome.Classification.Notes)
			}
			fmt.Fprintln(os.Stderr)
		}

	case IsAmbiguous(err):
		var ambiguous *model.AmbiguousError
		errors.As(err, &ambiguous)
		fmt.Fprintf(os.Stderr, "? %s: %d candidates, pick one:\n", id.String(), len(ambiguous.Candidates))
		for _, c := range ambiguous.Candidates {
			fmt.Fprintf(os.Stderr, "    %s  %s by %s (edited %s)\n",
				c.ID, c.Name, c.Creator, c.LastEdited.Format(time.RFC3339))
		}

	default:
		fmt.Fprintf(os.Stderr, "✗ %s: %v\n", id.String(), err)
	}
}

// IsAmbiguous reports whether err carries an ambiguous-match decision.
func IsAmbiguous(err error) bool {
	var ambiguous *model.AmbiguousError
	return errors.As(err, &ambiguous)
}

package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"modtriage/internal/model"
)

// Runner processes one identifier end to end.
type Runner interface {
	Process(ctx context.Context, id model.Identifier) (*model.Outcome, error)
}

// ProcessJob runs one identifier through a Runner.
type ProcessJob struct {
	Identifier model.Identifier
	Runner     Runner
}

// Execute executes the job
func (j *ProcessJob) Execute(ctx context.Context) Result {
	outcome, err := j.Runner.Process(ctx, j.Identifier)
	return &ProcessResult{
		Identifier: j.Identifier,
		Outcome:    outcome,
		Error:      err,
	}
}

// ProcessResult is the per-identifier result of a batch.
type ProcessResult struct {
	Identifier model.Identifier
	Outcome    *model.Outcome
	Error      error
}

// GetError returns the error from the result
func (r *ProcessResult) GetError() error {
	return r.Error
}

// BatchProcessor processes multiple identifiers concurrently on a bounded
// pool. Each identifier is independent and side-effect-isolated, so the
// only cross-identifier coordination lives in the Runner's per-key locks.
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// Process runs all identifiers through the pool and returns their results.
// Cancelling ctx finishes in-flight identifiers and abandons the rest.
func (b *BatchProcessor) Process(ctx context.Context, ids []model.Identifier) []*ProcessResult {
	if len(ids) == 0 {
		return []*ProcessResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-done:
		}
	}()

	for _, id := range ids {
		pool.Submit(&ProcessJob{Identifier: id, Runner: b.runner})
	}

	results := pool.Wait()

	processResults := make([]*ProcessResult, len(results))
	for i, result := range results {
		processResults[i] = result.(*ProcessResult)
	}

	return processResults
}

// ProcessFile reads identifiers from a file and processes them.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ProcessResult, error) {
	ids, err := ReadIdentifiersFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read identifiers: %w", err)
	}

	return b.Process(ctx, ids), nil
}

// ReadIdentifiersFromFile reads identifiers from a file, one per line:
// either a URL or "Name | Creator". Blank lines and # comments are
// skipped; duplicate lines are dropped.
func ReadIdentifiersFromFile(filePath string) ([]model.Identifier, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []model.Identifier
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true

		id, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		ids = append(ids, id)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return ids, nil
}

// ParseLine parses one batch-file line into an identifier. A "|" splits
// name from creator for non-URL lines.
func ParseLine(line string) (model.Identifier, error) {
	if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
		return model.ParseIdentifier(line, "")
	}

	name, creator, _ := strings.Cut(line, "|")
	return model.ParseIdentifier(strings.TrimSpace(name), strings.TrimSpace(creator))
}

// Package classify turns free-text model output into a bounded, validated
// classification: priority 1-5, folder label, and justification notes.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"modtriage/internal/llm"
	"modtriage/internal/model"
)

// Classifier assembles the prompt context, invokes inference, and parses
// the result. A ParseError triggers exactly one re-invocation with an
// augmented prompt; a second failure is terminal.
type Classifier struct {
	provider llm.Provider
	maxChars int
}

// New creates a classifier on top of an inference provider.
func New(provider llm.Provider, cfg model.ClassifyConfig) *Classifier {
	maxChars := cfg.MaxPromptChars
	if maxChars <= 0 {
		maxChars = 6000
	}
	return &Classifier{provider: provider, maxChars: maxChars}
}

// Classify produces a validated classification for one record. Inference
// transport failures are retried inside llm.CompleteWithRetry and surface
// here only after that budget; malformed output gets the single parse
// retry and then fails with ClassificationFailedError.
func (c *Classifier) Classify(ctx context.Context, record model.ModRecord, content model.ExtractedContent) (*model.Classification, error) {
	prompt := BuildPrompt(record, content, c.maxChars)

	resp, err := llm.CompleteWithRetry(ctx, c.provider, llm.CompleteRequest{
		System: systemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}

	classification, parseErr := Parse(resp.Text)
	if parseErr == nil {
		return classification, nil
	}

	// One retry with the invalid output echoed back, then terminal.
	var pe *model.ParseError
	if !errors.As(parseErr, &pe) {
		return nil, parseErr
	}

	retryResp, err := llm.CompleteWithRetry(ctx, c.provider, llm.CompleteRequest{
		System: systemPrompt,
		Prompt: buildRetryPrompt(prompt, resp.Text, pe.Reason),
	})
	if err != nil {
		return nil, fmt.Errorf("inference retry: %w", err)
	}

	classification, parseErr = Parse(retryResp.Text)
	if parseErr != nil {
		return nil, &model.ClassificationFailedError{Attempts: 2, Last: parseErr}
	}
	return classification, nil
}

// Parse maps raw model output onto the classification schema. Lines that
// don't match the expected labeled shape are ignored; a missing or
// out-of-range priority, an unmapped folder, or a high priority without
// notes is a ParseError, never a defaulted value.
func Parse(raw string) (*model.Classification, error) {
	var (
		priority   *int
		folderText string
		folderSeen bool
		notes      string
	)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		label, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(label)) {
		case "priority":
			n, err := strconv.Atoi(strings.TrimSpace(strings.Trim(value, ".")))
			if err != nil {
				return nil, &model.ParseError{Reason: fmt.Sprintf("priority %q is not an integer", value), Raw: raw}
			}
			priority = &n
		case "folder":
			folderText = value
			folderSeen = true
		case "notes":
			notes = value
		}
	}

	if priority == nil {
		return nil, &model.ParseError{Reason: "no priority line found", Raw: raw}
	}
	if *priority < model.MinPriority || *priority > model.MaxPriority {
		return nil, &model.ParseError{Reason: fmt.Sprintf("priority %d out of range %d-%d", *priority, model.MinPriority, model.MaxPriority), Raw: raw}
	}

	if !folderSeen {
		return nil, &model.ParseError{Reason: "no folder line found", Raw: raw}
	}
	folder, ok := model.CanonicalFolder(folderText)
	if !ok {
		return nil, &model.ParseError{Reason: fmt.Sprintf("folder %q is not in the allowed set", folderText), Raw: raw}
	}

	// The model must justify higher-priority assignments; accepting an
	// unexplained result would defeat the audit purpose of notes.
	if *priority >= model.NotesRequiredAt && notes == "" {
		return nil, &model.ParseError{Reason: fmt.Sprintf("priority %d requires notes", *priority), Raw: raw}
	}

	classification := &model.Classification{
		Priority: *priority,
		Folder:   folder,
		Notes:    notes,
	}
	if err := classification.Validate(); err != nil {
		return nil, &model.ParseError{Reason: err.Error(), Raw: raw}
	}
	return classification, nil
}

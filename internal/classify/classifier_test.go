package classify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"modtriage/internal/llm"
	"modtriage/internal/model"
)

// scriptedProvider returns canned responses in order.
type scriptedProvider struct {
	responses []string
	prompts   []string
	err       error
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Complete(ctx context.Context, req llm.CompleteRequest) (*llm.CompleteResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.prompts = append(s.prompts, req.Prompt)
	idx := len(s.prompts) - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return &llm.CompleteResponse{Text: s.responses[idx], Model: "scripted"}, nil
}

func (s *scriptedProvider) IsAvailable(ctx context.Context) bool { return true }

func newClassifier(p llm.Provider) *Classifier {
	return New(p, model.ClassifyConfig{MaxPromptChars: 6000})
}

var testRecord = model.ModRecord{Name: "Night Sky", Creator: "LunaSims"}

func TestClassify_WellFormedFirstTry(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"Priority: 2\nFolder: 01 - Core Gameplay\nNotes:",
	}}

	c := newClassifier(provider)
	got, err := c.Classify(context.Background(), testRecord, model.ExtractedContent{Text: "Adds stars."})
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if got.Priority != 2 || got.Folder != "01 - Core Gameplay" || got.Notes != "" {
		t.Errorf("unexpected classification: %+v", got)
	}
	if len(provider.prompts) != 1 {
		t.Errorf("expected 1 inference call, got %d", len(provider.prompts))
	}
}

func TestClassify_RetryOnceThenSucceed(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"I think this mod is quite important for gameplay.",
		"Priority: 3\nFolder: 02 - Quality of Life\nNotes: Smooths daily routines noticeably.",
	}}

	c := newClassifier(provider)
	got, err := c.Classify(context.Background(), testRecord, model.ExtractedContent{Text: "Adds stars."})
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if got.Priority != 3 {
		t.Errorf("priority = %d, want 3", got.Priority)
	}
	if len(provider.prompts) != 2 {
		t.Fatalf("expected 2 inference calls, got %d", len(provider.prompts))
	}
	// The retry prompt must carry the rejected output back to the model
	if !strings.Contains(provider.prompts[1], "quite important") {
		t.Error("retry prompt does not echo the invalid output")
	}
	if !strings.Contains(provider.prompts[1], "could not be used") {
		t.Error("retry prompt does not explain the rejection")
	}
}

func TestClassify_SecondFailureIsTerminal(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"no structure here",
		"still no structure",
		"Priority: 1\nFolder: 00 - Must Have\nNotes:",
	}}

	c := newClassifier(provider)
	_, err := c.Classify(context.Background(), testRecord, model.ExtractedContent{Text: "x"})
	if err == nil {
		t.Fatal("expected terminal failure after one retry")
	}

	var failed *model.ClassificationFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected ClassificationFailedError, got %T: %v", err, err)
	}
	if failed.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", failed.Attempts)
	}
	// Exactly two calls: the valid third response must never be requested
	if len(provider.prompts) != 2 {
		t.Errorf("expected exactly 2 inference calls, got %d", len(provider.prompts))
	}
}

func TestClassify_ProviderErrorNotRetriedAsParse(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("invalid api key")}

	c := newClassifier(provider)
	_, err := c.Classify(context.Background(), testRecord, model.ExtractedContent{Text: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	var failed *model.ClassificationFailedError
	if errors.As(err, &failed) {
		t.Error("transport failure must not be reported as a parse failure")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantPriority int
		wantFolder   string
		wantNotes    string
		wantErr      string
	}{
		{
			name:         "canonical",
			raw:          "Priority: 1\nFolder: 00 - Must Have\nNotes: Fixes a crash on save.",
			wantPriority: 1,
			wantFolder:   "00 - Must Have",
			wantNotes:    "Fixes a crash on save.",
		},
		{
			name:         "case insensitive labels and folder",
			raw:          "priority: 2\nFOLDER: 01 - core gameplay\nnotes:",
			wantPriority: 2,
			wantFolder:   "01 - Core Gameplay",
		},
		{
			name:         "chatter around the answer ignored",
			raw:          "Sure, here is my assessment:\nPriority: 4\nFolder: 03 - Enhancements\nNotes: Nice but skippable.\nLet me know if you need more.",
			wantPriority: 4,
			wantFolder:   "03 - Enhancements",
			wantNotes:    "Nice but skippable.",
		},
		{
			name:         "trailing period on priority",
			raw:          "Priority: 2.\nFolder: 02 - Quality of Life\nNotes:",
			wantPriority: 2,
			wantFolder:   "02 - Quality of Life",
		},
		{
			name:    "missing priority",
			raw:     "Folder: 00 - Must Have\nNotes: n/a",
			wantErr: "no priority line",
		},
		{
			name:    "non-integer priority",
			raw:     "Priority: high\nFolder: 00 - Must Have\nNotes: n/a",
			wantErr: "not an integer",
		},
		{
			name:    "out of range priority",
			raw:     "Priority: 7\nFolder: 00 - Must Have\nNotes: n/a",
			wantErr: "out of range",
		},
		{
			name:    "missing folder",
			raw:     "Priority: 1\nNotes: n/a",
			wantErr: "no folder line",
		},
		{
			name:    "folder outside allowed set",
			raw:     "Priority: 1\nFolder: 05 - Experimental\nNotes: n/a",
			wantErr: "not in the allowed set",
		},
		{
			name:    "high priority without notes",
			raw:     "Priority: 5\nFolder: 04 - Optional/Aesthetic\nNotes:",
			wantErr: "requires notes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got %+v", tt.wantErr, got)
				}
				var pe *model.ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("expected ParseError, got %T", err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if got.Priority != tt.wantPriority || got.Folder != tt.wantFolder || got.Notes != tt.wantNotes {
				t.Errorf("parsed %+v, want priority %d folder %q notes %q", got, tt.wantPriority, tt.wantFolder, tt.wantNotes)
			}
		})
	}
}

func TestBuildPrompt_Truncation(t *testing.T) {
	long := strings.Repeat("a", 500)
	prompt := BuildPrompt(testRecord, model.ExtractedContent{Text: long}, 100)

	if strings.Contains(prompt, strings.Repeat("a", 101)) {
		t.Error("page text not truncated to the cap")
	}
	if !strings.Contains(prompt, strings.Repeat("a", 100)) {
		t.Error("head of the page text missing from prompt")
	}
	// The rubric and format reminder always survive truncation
	if !strings.Contains(prompt, "Priority: <integer 1-5>") {
		t.Error("format reminder missing")
	}
	for _, folder := range model.Folders {
		if !strings.Contains(prompt, folder) {
			t.Errorf("folder %q missing from rubric", folder)
		}
	}
}

func TestBuildPrompt_TruncationKeepsRunesWhole(t *testing.T) {
	// Page text in Portuguese puts a 2-byte rune on the cut point.
	text := strings.Repeat("a", 99) + "ção fácil de instalar"
	prompt := BuildPrompt(testRecord, model.ExtractedContent{Text: text}, 100)

	if !utf8.ValidString(prompt) {
		t.Error("truncation split a multi-byte rune")
	}
	if strings.Contains(prompt, "�") {
		t.Error("prompt carries a replacement character")
	}
}

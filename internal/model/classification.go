package model

import (
	"fmt"
	"strings"
)

// Folders is the fixed, ordered label set for the Folder select property.
// The priority rubric maps priority N to Folders[N-1] by default, but the
// model may file a mod under any folder it can justify.
var Folders = []string{
	"00 - Must Have",
	"01 - Core Gameplay",
	"02 - Quality of Life",
	"03 - Enhancements",
	"04 - Optional/Aesthetic",
}

const (
	// MinPriority and MaxPriority bound the classification scale.
	// 1 is most important.
	MinPriority = 1
	MaxPriority = 5

	// NotesRequiredAt is the priority at or above which the model must
	// justify its assignment in the notes field.
	NotesRequiredAt = 3
)

// Classification is the bounded decision assigned to a record.
type Classification struct {
	Priority int    `json:"priority"` // 1-5
	Folder   string `json:"folder"`   // One of Folders
	Notes    string `json:"notes,omitempty"`
}

// Validate enforces the classification invariants. Violations are
// ValidationErrors, never coerced into a best guess.
func (c Classification) Validate() error {
	if c.Priority < MinPriority || c.Priority > MaxPriority {
		return &ValidationError{Reason: fmt.Sprintf("priority %d out of range %d-%d", c.Priority, MinPriority, MaxPriority)}
	}
	if _, ok := CanonicalFolder(c.Folder); !ok {
		return &ValidationError{Reason: fmt.Sprintf("unknown folder %q", c.Folder)}
	}
	if c.Priority >= NotesRequiredAt && strings.TrimSpace(c.Notes) == "" {
		return &ValidationError{Reason: fmt.Sprintf("priority %d requires non-empty notes", c.Priority)}
	}
	return nil
}

// CanonicalFolder maps folder text onto the fixed label set by exact
// case-insensitive comparison. Unmapped text is not defaulted.
func CanonicalFolder(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	for _, folder := range Folders {
		if strings.EqualFold(trimmed, folder) {
			return folder, true
		}
	}
	return "", false
}

// FolderForPriority returns the default folder for a priority, used in the
// prompt rubric shown to the model.
func FolderForPriority(priority int) string {
	if priority < MinPriority || priority > MaxPriority {
		return ""
	}
	return Folders[priority-1]
}

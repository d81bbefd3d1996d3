// Package store talks to the remote knowledge base holding one record per
// mod. The database schema is fixed: Name (title), Creator (text), Link
// (url), Priority (number 1-5), Folder (select), Notes (text).
package store

import (
	"context"

	"modtriage/internal/model"
)

// Property names of the fixed record schema.
const (
	PropName      = "Name"
	PropCreator   = "Creator"
	PropLink      = "Link"
	PropPriority  = "Priority"
	PropFolder    = "Folder"
	PropNotes     = "Notes"
	PropExtracted = "Extracted"
)

// Store is the knowledge-base contract consumed by the core. Implementations
// retry transient I/O failures internally; every error returned here is
// already past the retry budget or terminal (model.ErrNotFound).
type Store interface {
	// QueryByProperty returns records whose property matches value using
	// the store's native match: exact equality for Link, case-insensitive
	// contains for Name. An empty value lists records unfiltered, which
	// only the fuzzy resolution strategy uses.
	QueryByProperty(ctx context.Context, property, value string) ([]model.ModRecord, error)

	// QueryByLink returns candidate records for a mod URL. Stored links
	// are matched against both the raw and the normalized form, then by
	// containment on the normalized path, so links written before
	// normalization existed still resolve. Callers re-check candidates
	// against their own normalization.
	QueryByLink(ctx context.Context, rawURL, normalizedURL string) ([]model.ModRecord, error)

	// GetByID fetches one record by store id. Missing ids yield
	// model.ErrNotFound, never an empty record.
	GetByID(ctx context.Context, id string) (*model.ModRecord, error)

	// Update writes the set fields of an existing record. Repeating the
	// call with identical fields produces identical stored state.
	Update(ctx context.Context, id string, fields Fields) error

	// Create inserts a new record and returns it with its assigned id.
	Create(ctx context.Context, fields Fields) (*model.ModRecord, error)
}

// Fields carries the properties of a write. Nil/empty values are omitted
// from the request so updates never clobber fields they don't set. Notes
// is a pointer because an empty string is a meaningful write: it clears a
// stale justification when a record is reclassified to a low priority.
type Fields struct {
	Name      string
	Creator   string
	Link      string
	Priority  *int
	Folder    string
	Notes     *string
	Extracted *model.ExtractedContent
}

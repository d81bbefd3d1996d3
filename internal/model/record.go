package model

import "time"

// ModRecord represents one entry in the knowledge base. Identity is the
// store id; every other field is mutable.
type ModRecord struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Creator    string            `json:"creator,omitempty"`
	Link       string            `json:"link,omitempty"`
	Priority   *int              `json:"priority,omitempty"` // 1-5, nil until classified
	Folder     string            `json:"folder,omitempty"`
	Notes      string            `json:"notes,omitempty"`
	Extracted  *ExtractedContent `json:"extracted,omitempty"` // Cached page content
	LastEdited time.Time         `json:"last_edited,omitempty"`
}

// HasContent reports whether the record carries cached extracted content.
func (r *ModRecord) HasContent() bool {
	return r.Extracted != nil && r.Extracted.Text != ""
}

// ExtractedContent is the plain text and image references pulled from a
// mod's page. Derived once per pipeline run.
type ExtractedContent struct {
	Text   string   `json:"text"`
	Images []string `json:"images,omitempty"` // Ordered opaque references
}

// Outcome is the result of one successful pipeline run: the persisted
// record and the classification written to it.
type Outcome struct {
	Record         ModRecord      `json:"record"`
	Classification Classification `json:"classification"`
	Created        bool           `json:"created"` // True when the record was created, not updated
}

// MatchKind discriminates resolution outcomes
type MatchKind string

const (
	MatchNone      MatchKind = "none"
	MatchUnique    MatchKind = "unique"
	MatchAmbiguous MatchKind = "ambiguous"
)

// MatchResult is the outcome of resolving an identifier. Ambiguous
// candidates are ranked by confidence, most-recently-modified first.
type MatchResult struct {
	Kind       MatchKind
	Record     *ModRecord  // Set for MatchUnique
	Candidates []ModRecord // Set for MatchAmbiguous, ranked
	Strategy   string      // Which resolution strategy produced the result
}

// NoMatch returns an empty resolution outcome.
func NoMatch() MatchResult {
	return MatchResult{Kind: MatchNone}
}

// UniqueMatch returns a confirmed single-record outcome.
func UniqueMatch(record ModRecord, strategy string) MatchResult {
	return MatchResult{Kind: MatchUnique, Record: &record, Strategy: strategy}
}

// AmbiguousMatch returns a multi-candidate outcome requiring an external
// decision. Candidates must already be ranked by the caller.
func AmbiguousMatch(candidates []ModRecord, strategy string) MatchResult {
	return MatchResult{Kind: MatchAmbiguous, Candidates: candidates, Strategy: strategy}
}

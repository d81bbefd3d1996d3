// Package resolve maps a parsed identifier to zero, one, or many records in
// the knowledge base through an ordered cascade of query strategies.
package resolve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"modtriage/internal/model"
	"modtriage/internal/store"
)

// Strategy names, surfaced in match results and ambiguity errors.
const (
	StrategyLink        = "link"
	StrategyPageID      = "page_id"
	StrategyNameCreator = "name_creator"
	StrategyFuzzyName   = "fuzzy_name"
)

// strategy is one pure query against the store. Returning MatchNone hands
// off to the next strategy in the cascade.
type strategy struct {
	name string
	run  func(ctx context.Context, id model.Identifier) (model.MatchResult, error)
}

// Resolver resolves identifiers against the knowledge base. Exact
// strategies run before fuzzy ones; the first strategy yielding at least
// one candidate wins and later strategies are never attempted.
type Resolver struct {
	store          store.Store
	fuzzyThreshold float64
	maxCandidates  int
}

// New creates a resolver with the given fuzzy-match tuning.
func New(s store.Store, cfg model.ResolveConfig) *Resolver {
	threshold := cfg.FuzzyThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.85
	}
	maxCandidates := cfg.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 5
	}

	return &Resolver{
		store:          s,
		fuzzyThreshold: threshold,
		maxCandidates:  maxCandidates,
	}
}

// Resolve runs the strategy cascade for the identifier's kind. It fails
// only on store I/O errors, which are propagated, not swallowed.
func (r *Resolver) Resolve(ctx context.Context, id model.Identifier) (model.MatchResult, error) {
	for _, s := range r.strategies(id.Kind) {
		result, err := s.run(ctx, id)
		if err != nil {
			return model.NoMatch(), fmt.Errorf("%s strategy: %w", s.name, err)
		}
		if result.Kind != model.MatchNone {
			return result, nil
		}
	}
	return model.NoMatch(), nil
}

// strategies returns the ordered cascade for an identifier kind.
func (r *Resolver) strategies(kind model.IdentifierKind) []strategy {
	switch kind {
	case model.KindModURL:
		return []strategy{{StrategyLink, r.byLink}}
	case model.KindNotionURL:
		return []strategy{{StrategyPageID, r.byPageID}}
	default:
		return []strategy{
			{StrategyNameCreator, r.byNameCreator},
			{StrategyFuzzyName, r.byFuzzyName},
		}
	}
}

// byLink matches the record's Link property. The store is queried with
// both the raw input and its normalized form so records whose stored link
// predates normalization still surface; candidates are then kept only on
// exact equality of normalized URLs. More than one hit is ambiguous,
// never picked from.
func (r *Resolver) byLink(ctx context.Context, id model.Identifier) (model.MatchResult, error) {
	records, err := r.store.QueryByLink(ctx, id.String(), id.URL)
	if err != nil {
		return model.NoMatch(), err
	}

	matched := records[:0:0]
	for _, rec := range records {
		if model.NormalizeURL(rec.Link) == id.URL {
			matched = append(matched, rec)
		}
	}

	switch len(matched) {
	case 0:
		return model.NoMatch(), nil
	case 1:
		return model.UniqueMatch(matched[0], StrategyLink), nil
	default:
		sortByLastEdited(matched)
		return model.AmbiguousMatch(matched, StrategyLink), nil
	}
}

// byPageID resolves the record id encoded in a Notion URL by direct
// lookup. A missing id is model.ErrNotFound; this is never ambiguous.
func (r *Resolver) byPageID(ctx context.Context, id model.Identifier) (model.MatchResult, error) {
	record, err := r.store.GetByID(ctx, id.PageID)
	if err != nil {
		return model.NoMatch(), err
	}
	return model.UniqueMatch(*record, StrategyPageID), nil
}

// byNameCreator matches case-insensitively on the exact name, narrowed by
// exact creator when the identifier carries one. Multiple records sharing
// the same pair are ambiguous, ranked most-recently-modified first.
func (r *Resolver) byNameCreator(ctx context.Context, id model.Identifier) (model.MatchResult, error) {
	records, err := r.store.QueryByProperty(ctx, store.PropName, id.Name)
	if err != nil {
		return model.NoMatch(), err
	}

	matched := records[:0:0]
	for _, rec := range records {
		if !strings.EqualFold(rec.Name, id.Name) {
			continue
		}
		if id.Creator != "" && !strings.EqualFold(rec.Creator, id.Creator) {
			continue
		}
		matched = append(matched, rec)
	}

	switch len(matched) {
	case 0:
		return model.NoMatch(), nil
	case 1:
		return model.UniqueMatch(matched[0], StrategyNameCreator), nil
	default:
		sortByLastEdited(matched)
		return model.AmbiguousMatch(matched, StrategyNameCreator), nil
	}
}

// byFuzzyName is the last resort: score every record's name against the
// input and keep those above the similarity threshold. Fuzzy candidates
// are always ambiguous, even alone, so the caller makes an explicit
// confirm-or-create decision instead of auto-accepting.
func (r *Resolver) byFuzzyName(ctx context.Context, id model.Identifier) (model.MatchResult, error) {
	records, err := r.store.QueryByProperty(ctx, store.PropName, "")
	if err != nil {
		return model.NoMatch(), err
	}

	type scored struct {
		record model.ModRecord
		score  float64
	}

	candidates := []scored{}
	for _, rec := range records {
		if score := Similarity(rec.Name, id.Name); score >= r.fuzzyThreshold {
			candidates = append(candidates, scored{rec, score})
		}
	}

	if len(candidates) == 0 {
		return model.NoMatch(), nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].record.LastEdited.After(candidates[j].record.LastEdited)
	})

	if len(candidates) > r.maxCandidates {
		candidates = candidates[:r.maxCandidates]
	}

	ranked := make([]model.ModRecord, len(candidates))
	for i, c := range candidates {
		ranked[i] = c.record
	}
	return model.AmbiguousMatch(ranked, StrategyFuzzyName), nil
}

// sortByLastEdited orders candidates most-recently-modified first, with
// the id as a deterministic tie-break.
func sortByLastEdited(records []model.ModRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].LastEdited.Equal(records[j].LastEdited) {
			return records[i].LastEdited.After(records[j].LastEdited)
		}
		return records[i].ID < records[j].ID
	})
}

package model

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// IdentifierKind discriminates the identifier union
type IdentifierKind string

const (
	KindModURL      IdentifierKind = "mod_url"      // External mod page URL
	KindNotionURL   IdentifierKind = "notion_url"   // Notion page URL (encodes the record id)
	KindNameCreator IdentifierKind = "name_creator" // Free-text name + creator pair
)

// Identifier is a parsed user input identifying a single mod.
// Exactly the fields for its kind are populated.
type Identifier struct {
	Kind    IdentifierKind `json:"kind"`
	URL     string         `json:"url,omitempty"`     // ModURL: normalized mod page URL
	PageID  string         `json:"page_id,omitempty"` // NotionURL: canonical dashed page UUID
	Name    string         `json:"name,omitempty"`    // NameCreator
	Creator string         `json:"creator,omitempty"` // NameCreator (may be empty)

	raw string
}

// ParseIdentifier classifies raw user input by structure, not content:
// Notion hosts resolve to NotionURL, any other http(s) URL to ModURL,
// everything else to a NameCreator pair.
func ParseIdentifier(raw, creator string) (Identifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identifier{}, fmt.Errorf("empty identifier")
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		parsed, err := url.Parse(raw)
		if err != nil {
			return Identifier{}, fmt.Errorf("parse URL: %w", err)
		}

		if isNotionHost(parsed.Host) {
			pageID, err := pageIDFromURL(parsed)
			if err != nil {
				return Identifier{}, fmt.Errorf("notion URL %q: %w", raw, err)
			}
			return Identifier{Kind: KindNotionURL, PageID: pageID, raw: raw}, nil
		}

		return Identifier{Kind: KindModURL, URL: NormalizeURL(raw), raw: raw}, nil
	}

	return Identifier{
		Kind:    KindNameCreator,
		Name:    raw,
		Creator: strings.TrimSpace(creator),
		raw:     raw,
	}, nil
}

// String returns the original user input.
func (id Identifier) String() string {
	if id.raw != "" {
		return id.raw
	}
	switch id.Kind {
	case KindModURL:
		return id.URL
	case KindNotionURL:
		return id.PageID
	default:
		if id.Creator != "" {
			return id.Name + " | " + id.Creator
		}
		return id.Name
	}
}

// Key returns the serialization key used to prevent concurrent duplicate
// creation for the same identity. Distinct identities map to distinct keys.
func (id Identifier) Key() string {
	switch id.Kind {
	case KindModURL:
		return "link:" + id.URL
	case KindNotionURL:
		return "page:" + id.PageID
	default:
		return "name:" + strings.ToLower(id.Name) + "|" + strings.ToLower(id.Creator)
	}
}

func isNotionHost(host string) bool {
	host = strings.ToLower(host)
	return host == "notion.so" || host == "www.notion.so" || host == "app.notion.so" ||
		host == "notion.site" || strings.HasSuffix(host, ".notion.site")
}

// pageIDFromURL extracts the 32-hex-digit page id that Notion embeds in the
// last path segment (page-title-<id>) or the "p" query parameter, and
// canonicalizes it to the dashed UUID form.
func pageIDFromURL(u *url.URL) (string, error) {
	candidates := []string{}

	path := strings.Trim(u.Path, "/")
	if path != "" {
		last := path
		if idx := strings.LastIndex(path, "/"); idx >= 0 {
			last = path[idx+1:]
		}
		if idx := strings.LastIndex(last, "-"); idx >= 0 {
			last = last[idx+1:]
		}
		candidates = append(candidates, last)
	}
	if p := u.Query().Get("p"); p != "" {
		candidates = append(candidates, p)
	}

	for _, c := range candidates {
		if len(c) != 32 {
			continue
		}
		parsed, err := uuid.Parse(c)
		if err != nil {
			continue
		}
		return parsed.String(), nil
	}

	return "", fmt.Errorf("no page id found")
}

// trackingParams are query parameters stripped during URL normalization.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"ref":          true,
	"fbclid":       true,
}

// NormalizeURL canonicalizes a mod URL for exact-match comparison:
// lowercase scheme and host, no "www." prefix, no trailing slash, and no
// tracking query parameters. Invalid URLs are returned unchanged.
func NormalizeURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return raw
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.Fragment = ""

	query := parsed.Query()
	for key := range query {
		if trackingParams[key] || strings.HasPrefix(key, "utm_") {
			query.Del(key)
		}
	}

	// Rebuild the query in sorted key order so equal URLs compare equal.
	if len(query) == 0 {
		parsed.RawQuery = ""
	} else {
		keys := make([]string, 0, len(query))
		for key := range query {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var sb strings.Builder
		for _, key := range keys {
			for _, val := range query[key] {
				if sb.Len() > 0 {
					sb.WriteByte('&')
				}
				sb.WriteString(url.QueryEscape(key))
				sb.WriteByte('=')
				sb.WriteString(url.QueryEscape(val))
			}
		}
		parsed.RawQuery = sb.String()
	}

	return parsed.String()
}

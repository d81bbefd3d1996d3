package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"modtriage/internal/model"
	"modtriage/internal/util"
)

const (
	defaultBaseURL = "https://api.notion.com"
	notionVersion  = "2022-06-28"
	maxRetries     = 3

	// Notion caps a single rich_text element at 2000 characters; cached
	// page text is truncated to fit.
	maxRichTextLen = 2000
)

// sleepFunc is the delay between retries (injectable for tests).
var sleepFunc = time.Sleep

// HTTPClient defines the interface for HTTP operations
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Notion implements Store against the Notion REST API.
type Notion struct {
	apiKey     string
	databaseID string
	baseURL    string
	httpClient HTTPClient
}

// Option allows configuring the Notion client
type Option func(*Notion)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client HTTPClient) Option {
	return func(n *Notion) {
		n.httpClient = client
	}
}

// WithBaseURL sets a custom API base URL
func WithBaseURL(url string) Option {
	return func(n *Notion) {
		n.baseURL = strings.TrimSuffix(url, "/")
	}
}

// NewNotion creates a Notion-backed store for one database.
func NewNotion(apiKey, databaseID string, timeout time.Duration, opts ...Option) (*Notion, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("notion API key is required")
	}
	if databaseID == "" {
		return nil, fmt.Errorf("notion database id is required")
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	n := &Notion{
		apiKey:     apiKey,
		databaseID: databaseID,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		opt(n)
	}

	return n, nil
}

// Notion API structures (request side)

type queryRequest struct {
	Filter      json.RawMessage `json:"filter,omitempty"`
	PageSize    int             `json:"page_size,omitempty"`
	StartCursor string          `json:"start_cursor,omitempty"`
	Sorts       []querySort     `json:"sorts,omitempty"`
}

type querySort struct {
	Timestamp string `json:"timestamp"`
	Direction string `json:"direction"`
}

type createRequest struct {
	Parent     parentRef                  `json:"parent"`
	Properties map[string]json.RawMessage `json:"properties"`
}

type updateRequest struct {
	Properties map[string]json.RawMessage `json:"properties"`
}

type parentRef struct {
	DatabaseID string `json:"database_id"`
}

// Notion API structures (response side)

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

type page struct {
	ID             string              `json:"id"`
	LastEditedTime time.Time           `json:"last_edited_time"`
	Properties     map[string]property `json:"properties"`
}

type property struct {
	Type     string     `json:"type"`
	Title    []richText `json:"title,omitempty"`
	RichText []richText `json:"rich_text,omitempty"`
	URL      string     `json:"url,omitempty"`
	Number   *float64   `json:"number,omitempty"`
	Select   *selectVal `json:"select,omitempty"`
}

type richText struct {
	PlainText string   `json:"plain_text,omitempty"`
	Text      *textVal `json:"text,omitempty"`
}

type textVal struct {
	Content string `json:"content"`
}

type selectVal struct {
	Name string `json:"name"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// QueryByProperty queries the database by one property. Link values match
// exactly; Name values match case-insensitively by containment; an empty
// value lists the database unfiltered.
func (n *Notion) QueryByProperty(ctx context.Context, propertyName, value string) ([]model.ModRecord, error) {
	filter, err := buildFilter(propertyName, value)
	if err != nil {
		return nil, err
	}

	records, err := n.query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", propertyName, err)
	}
	return records, nil
}

// QueryByLink matches the Link property against both the raw and the
// normalized form of a mod URL in one OR filter, so links stored before
// normalization (trailing slash, www, tracking params) still hit. When
// neither form matches it falls back to containment on the normalized
// path. Callers re-check candidates against their own normalization.
func (n *Notion) QueryByLink(ctx context.Context, rawURL, normalizedURL string) ([]model.ModRecord, error) {
	equalsFilter, err := json.Marshal(map[string]any{
		"or": []map[string]any{
			{"property": PropLink, "url": map[string]string{"equals": rawURL}},
			{"property": PropLink, "url": map[string]string{"equals": normalizedURL}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal link filter: %w", err)
	}

	records, err := n.query(ctx, equalsFilter)
	if err != nil {
		return nil, fmt.Errorf("query link: %w", err)
	}
	if len(records) > 0 {
		return records, nil
	}

	containsFilter, err := json.Marshal(map[string]any{
		"property": PropLink,
		"url":      map[string]string{"contains": linkNeedle(normalizedURL)},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal link filter: %w", err)
	}

	records, err = n.query(ctx, containsFilter)
	if err != nil {
		return nil, fmt.Errorf("query link: %w", err)
	}
	return records, nil
}

// linkNeedle picks the containment needle for the link fallback: the URL
// path, which survives host and scheme variations in stored links. Root
// URLs have no usable path and fall back to the URL without query params.
func linkNeedle(normalizedURL string) string {
	withoutQuery, _, _ := strings.Cut(normalizedURL, "?")
	if u, err := url.Parse(withoutQuery); err == nil && len(u.Path) > 1 {
		return u.Path
	}
	return withoutQuery
}

// query runs one database query and follows the cursor until the result
// set is exhausted, so matches past the first page are never dropped.
func (n *Notion) query(ctx context.Context, filter json.RawMessage) ([]model.ModRecord, error) {
	path := fmt.Sprintf("/v1/databases/%s/query", n.databaseID)

	var records []model.ModRecord
	cursor := ""
	for {
		reqBody := queryRequest{
			Filter:      filter,
			PageSize:    100,
			StartCursor: cursor,
			Sorts: []querySort{
				{Timestamp: "last_edited_time", Direction: "descending"},
			},
		}

		var resp queryResponse
		if err := n.call(ctx, http.MethodPost, path, reqBody, &resp); err != nil {
			return nil, err
		}

		for _, p := range resp.Results {
			records = append(records, recordFromPage(p))
		}

		if !resp.HasMore || resp.NextCursor == "" {
			return records, nil
		}
		cursor = resp.NextCursor
	}
}

func buildFilter(propertyName, value string) (json.RawMessage, error) {
	if value == "" {
		return nil, nil
	}

	var condition map[string]any
	switch propertyName {
	case PropLink:
		condition = map[string]any{"url": map[string]string{"equals": value}}
	case PropName:
		condition = map[string]any{"title": map[string]string{"contains": value}}
	case PropCreator:
		condition = map[string]any{"rich_text": map[string]string{"equals": value}}
	default:
		return nil, fmt.Errorf("unsupported query property: %s", propertyName)
	}

	condition["property"] = propertyName
	return json.Marshal(condition)
}

// GetByID retrieves a single record by page id.
func (n *Notion) GetByID(ctx context.Context, id string) (*model.ModRecord, error) {
	var p page
	if err := n.call(ctx, http.MethodGet, "/v1/pages/"+id, nil, &p); err != nil {
		return nil, fmt.Errorf("get page %s: %w", id, err)
	}
	record := recordFromPage(p)
	return &record, nil
}

// Update patches the set fields of an existing page.
func (n *Notion) Update(ctx context.Context, id string, fields Fields) error {
	reqBody := updateRequest{Properties: buildProperties(fields)}
	if err := n.call(ctx, http.MethodPatch, "/v1/pages/"+id, reqBody, nil); err != nil {
		return fmt.Errorf("update page %s: %w", id, err)
	}
	return nil
}

// Create inserts a new page into the database.
func (n *Notion) Create(ctx context.Context, fields Fields) (*model.ModRecord, error) {
	reqBody := createRequest{
		Parent:     parentRef{DatabaseID: n.databaseID},
		Properties: buildProperties(fields),
	}

	var p page
	if err := n.call(ctx, http.MethodPost, "/v1/pages", reqBody, &p); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	record := recordFromPage(p)
	if record.Extracted == nil {
		record.Extracted = fields.Extracted
	}
	return &record, nil
}

// buildProperties converts write fields into Notion property payloads,
// omitting unset values so writes never clobber properties they don't name.
func buildProperties(fields Fields) map[string]json.RawMessage {
	props := make(map[string]json.RawMessage)

	put := func(name string, value any) {
		data, err := json.Marshal(value)
		if err != nil {
			return
		}
		props[name] = data
	}

	if fields.Name != "" {
		put(PropName, map[string]any{
			"title": []map[string]any{{"text": map[string]string{"content": fields.Name}}},
		})
	}
	if fields.Creator != "" {
		put(PropCreator, map[string]any{
			"rich_text": []map[string]any{{"text": map[string]string{"content": fields.Creator}}},
		})
	}
	if fields.Link != "" {
		put(PropLink, map[string]any{"url": fields.Link})
	}
	if fields.Priority != nil {
		put(PropPriority, map[string]any{"number": *fields.Priority})
	}
	if fields.Folder != "" {
		put(PropFolder, map[string]any{"select": map[string]string{"name": fields.Folder}})
	}
	if fields.Notes != nil {
		// An empty rich_text array clears the property; a set Notes field
		// always wins over whatever justification the page held before.
		parts := []map[string]any{}
		if *fields.Notes != "" {
			parts = append(parts, map[string]any{"text": map[string]string{"content": *fields.Notes}})
		}
		put(PropNotes, map[string]any{"rich_text": parts})
	}
	if fields.Extracted != nil && fields.Extracted.Text != "" {
		text := util.TruncateString(fields.Extracted.Text, maxRichTextLen)
		put(PropExtracted, map[string]any{
			"rich_text": []map[string]any{{"text": map[string]string{"content": text}}},
		})
	}

	return props
}

// recordFromPage flattens a Notion page into a ModRecord.
func recordFromPage(p page) model.ModRecord {
	record := model.ModRecord{
		ID:         p.ID,
		LastEdited: p.LastEditedTime,
	}

	for name, prop := range p.Properties {
		switch name {
		case PropName:
			record.Name = plainText(prop.Title)
		case PropCreator:
			record.Creator = plainText(prop.RichText)
		case PropLink:
			record.Link = prop.URL
		case PropPriority:
			if prop.Number != nil {
				priority := int(*prop.Number)
				record.Priority = &priority
			}
		case PropFolder:
			if prop.Select != nil {
				record.Folder = prop.Select.Name
			}
		case PropNotes:
			record.Notes = plainText(prop.RichText)
		case PropExtracted:
			if text := plainText(prop.RichText); text != "" {
				record.Extracted = &model.ExtractedContent{Text: text}
			}
		}
	}

	return record
}

func plainText(parts []richText) string {
	var sb strings.Builder
	for _, part := range parts {
		if part.PlainText != "" {
			sb.WriteString(part.PlainText)
		} else if part.Text != nil {
			sb.WriteString(part.Text.Content)
		}
	}
	return sb.String()
}

// call performs one API request with retry on transient failures.
func (n *Notion) call(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = data
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			sleepFunc(backoff)
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, n.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
		req.Header.Set("Notion-Version", notionVersion)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := n.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4_000_000))
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
			return nil

		case resp.StatusCode == http.StatusNotFound:
			return model.ErrNotFound

		case resp.StatusCode == http.StatusTooManyRequests:
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
				sleepFunc(time.Duration(seconds) * time.Second)
			}
			lastErr = fmt.Errorf("rate limited: %d", resp.StatusCode)

		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)

		default:
			var apiErr apiError
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
				return fmt.Errorf("api error (status %d, %s): %s", resp.StatusCode, apiErr.Code, apiErr.Message)
			}
			return fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(respBody))
		}
	}

	return fmt.Errorf("request failed after %d attempts: %w", maxRetries, lastErr)
}

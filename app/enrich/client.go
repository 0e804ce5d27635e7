package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bookwell/bookbridge/app/retry"
)

const (
	DefaultChunkSize = 100

	defaultRetryAfter = 30 * time.Second
	requestTimeout    = 30 * time.Second
)

// Client queries the bibliographic lookup service in bounded batches.
// Failed chunks are logged and skipped, so total coverage may be partial;
// FetchBulk always returns a usable (possibly empty) mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	policy     retry.Policy
	chunkSize  int
}

func NewClient(baseURL, apiKey, userAgent string, policy retry.Policy) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		userAgent:  userAgent,
		policy:     policy,
		chunkSize:  DefaultChunkSize,
	}
}

// FetchBulk looks up all identifiers in chunks. Absence of an identifier
// from the returned map is the "no data" signal.
func (c *Client) FetchBulk(ctx context.Context, identifiers []string) map[string]Record {
	results := make(map[string]Record)
	if len(identifiers) == 0 {
		return results
	}

	batches := 0
	failed := 0
	for start := 0; start < len(identifiers); start += c.chunkSize {
		end := start + c.chunkSize
		if end > len(identifiers) {
			end = len(identifiers)
		}
		chunk := identifiers[start:end]
		batches++

		var records map[string]Record
		err := c.policy.Do(ctx, func() error {
			var fetchErr error
			records, fetchErr = c.fetchChunk(ctx, chunk)
			return fetchErr
		})
		if err != nil {
			slog.Error("Enrichment batch failed", "batch", batches, "size", len(chunk), "error", err)
			failed++
			continue
		}

		for identifier, record := range records {
			results[identifier] = record
		}
	}

	slog.Info("Enrichment completed",
		"identifiers", len(identifiers),
		"matched", len(results),
		"batches", batches,
		"failed_batches", failed)

	return results
}

func (c *Client) fetchChunk(ctx context.Context, identifiers []string) (map[string]Record, error) {
	payload := "isbns=" + strings.Join(identifiers, ",")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/books", strings.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return nil, retry.RateLimited(fmt.Errorf("rate limited: HTTP %d", resp.StatusCode), retryAfter(resp))
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, retry.Transient(fmt.Errorf("server error: HTTP %d", resp.StatusCode))
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	records := make(map[string]Record, len(parsed.Data))
	for _, book := range parsed.Data {
		identifier := strings.TrimSpace(book.ISBN13)
		if identifier == "" {
			continue
		}
		records[identifier] = book.normalize()
	}

	return records, nil
}

func retryAfter(resp *http.Response) time.Duration {
	if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultRetryAfter
}

type bulkResponse struct {
	Data []apiBook `json:"data"`
}

// apiBook mirrors the service's raw response schema.
type apiBook struct {
	Title         string   `json:"title"`
	Synopsis      string   `json:"synopsis"`
	Description   string   `json:"description"`
	Image         string   `json:"image"`
	Authors       []string `json:"authors"`
	Publisher     string   `json:"publisher"`
	DatePublished string   `json:"date_published"`
	Language      string   `json:"language"`
	ISBN10        string   `json:"isbn10"`
	ISBN13        string   `json:"isbn13"`
	Pages         int      `json:"pages"`
	Binding       string   `json:"binding"`
}

func (b apiBook) normalize() Record {
	description := b.Synopsis
	if description == "" {
		description = b.Description
	}

	pages := ""
	if b.Pages > 0 {
		pages = strconv.Itoa(b.Pages)
	}

	return Record{
		Title:           b.Title,
		Description:     description,
		CoverImage:      b.Image,
		Author:          strings.Join(b.Authors, ", "),
		Publisher:       b.Publisher,
		PublicationYear: b.DatePublished,
		Language:        b.Language,
		ISBN10:          b.ISBN10,
		ISBN13:          b.ISBN13,
		Pages:           pages,
		Binding:         b.Binding,
	}
}

package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bookwell/bookbridge/app/retry"
)

func fastPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}
}

func bookJSON(isbn13, title string) string {
	return fmt.Sprintf(`{"isbn13":%q,"title":%q,"authors":["Author One","Author Two"],"publisher":"Test House","date_published":"2001","language":"en","isbn10":"1234567890","pages":320,"binding":"Paperback","synopsis":"A synopsis","image":"https://covers.example/%s.jpg"}`, isbn13, title, isbn13)
}

func TestClient_FetchBulk_ChunksRequests(t *testing.T) {
	var payloads []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		payloads = append(payloads, string(body))
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "test-agent", fastPolicy())

	identifiers := make([]string, 250)
	for i := range identifiers {
		identifiers[i] = fmt.Sprintf("978%010d", i)
	}

	client.FetchBulk(context.Background(), identifiers)

	if len(payloads) != 3 {
		t.Fatalf("Expected 3 requests for 250 identifiers, got %d", len(payloads))
	}

	sizes := []int{100, 100, 50}
	for i, payload := range payloads {
		ids := strings.Split(strings.TrimPrefix(payload, "isbns="), ",")
		if len(ids) != sizes[i] {
			t.Errorf("Request %d: expected %d identifiers, got %d", i+1, sizes[i], len(ids))
		}
	}
}

func TestClient_FetchBulk_FailedChunkDoesNotSuppressOthers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "fail") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		ids := strings.Split(strings.TrimPrefix(string(body), "isbns="), ",")
		var books []string
		for _, id := range ids {
			books = append(books, bookJSON(id, "Title "+id))
		}
		fmt.Fprintf(w, `{"data":[%s]}`, strings.Join(books, ","))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "test-agent", fastPolicy())
	client.chunkSize = 2

	results := client.FetchBulk(context.Background(), []string{"111", "222", "fail1", "fail2", "333"})

	for _, id := range []string{"111", "222", "333"} {
		if _, ok := results[id]; !ok {
			t.Errorf("Expected result for %s despite failed middle chunk", id)
		}
	}
	if _, ok := results["fail1"]; ok {
		t.Error("Failed chunk should contribute no data")
	}
	if len(results) != 3 {
		t.Errorf("Expected 3 results, got %d", len(results))
	}
}

func TestClient_FetchBulk_HonorsRetryAfter(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprintf(w, `{"data":[%s]}`, bookJSON("9781234567897", "Recovered"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "test-agent", fastPolicy())

	start := time.Now()
	results := client.FetchBulk(context.Background(), []string{"9781234567897"})
	elapsed := time.Since(start)

	if attempts != 2 {
		t.Errorf("Expected 2 attempts (one rate-limited, one retry), got %d", attempts)
	}
	if elapsed < time.Second {
		t.Errorf("Expected the client to honor Retry-After of 1s, returned after %v", elapsed)
	}
	if _, ok := results["9781234567897"]; !ok {
		t.Error("Expected result after rate-limit recovery")
	}
}

func TestClient_FetchBulk_ClientErrorIsNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"invalid key"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-key", "test-agent", fastPolicy())

	results := client.FetchBulk(context.Background(), []string{"9781234567897"})

	if attempts != 1 {
		t.Errorf("Expected 1 attempt for a client error, got %d", attempts)
	}
	if len(results) != 0 {
		t.Errorf("Expected empty result map, got %d entries", len(results))
	}
}

func TestClient_FetchBulk_NormalizesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[
			{"isbn13":"9781111111111","title":"Full Book","authors":["A. Author","B. Writer"],"publisher":"House","date_published":"1999","language":"en","isbn10":"1111111111","pages":123,"binding":"Hardcover","synopsis":"Syn","image":"https://covers.example/1.jpg"},
			{"isbn13":"9782222222222","title":"Fallback Description","description":"Plain description"},
			{"title":"No identifier, dropped"}
		]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", "test-agent", fastPolicy())

	results := client.FetchBulk(context.Background(), []string{"9781111111111", "9782222222222"})

	if len(results) != 2 {
		t.Fatalf("Expected 2 records (identifier-less book dropped), got %d", len(results))
	}

	full := results["9781111111111"]
	if full.Author != "A. Author, B. Writer" {
		t.Errorf("Expected joined authors, got '%s'", full.Author)
	}
	if full.Description != "Syn" {
		t.Errorf("Expected synopsis to win, got '%s'", full.Description)
	}
	if full.Pages != "123" {
		t.Errorf("Expected pages '123', got '%s'", full.Pages)
	}
	if full.PublicationYear != "1999" {
		t.Errorf("Expected publication year '1999', got '%s'", full.PublicationYear)
	}

	fallback := results["9782222222222"]
	if fallback.Description != "Plain description" {
		t.Errorf("Expected description fallback, got '%s'", fallback.Description)
	}
	if fallback.Pages != "" {
		t.Errorf("Expected empty pages for missing count, got '%s'", fallback.Pages)
	}
}

func TestClient_FetchBulk_EmptyInput(t *testing.T) {
	client := NewClient("http://unused.example", "key", "test-agent", fastPolicy())

	results := client.FetchBulk(context.Background(), nil)
	if results == nil {
		t.Fatal("Expected non-nil empty map")
	}
	if len(results) != 0 {
		t.Errorf("Expected empty map, got %d entries", len(results))
	}
}

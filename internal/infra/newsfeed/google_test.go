package newsfeed_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tw-stock-tracker/internal/domain/entity"
	"tw-stock-tracker/internal/infra/newsfeed"
)

func testSecurity() entity.Security {
	return entity.Security{Code: "2330", Name: "台積電", Industry: "半導體"}
}

func newTestFetcher(baseURL string) *newsfeed.GoogleNewsFetcher {
	client := &http.Client{Timeout: 10 * time.Second}
	return newsfeed.NewGoogleNewsFetcher(client, newsfeed.Config{
		BaseURL:         baseURL,
		QueryKeywords:   []string{"財報", "營收", "法說會", "EPS"},
		RequestInterval: time.Millisecond,
	})
}

func rssFeed(items string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Search Results</title>
    <link>https://example.com</link>
%s  </channel>
</rss>`, items)
}

func rssItem(title, link string, pubAt time.Time) string {
	return fmt.Sprintf(`    <item>
      <title>%s</title>
      <link>%s</link>
      <pubDate>%s</pubDate>
    </item>
`, title, link, pubAt.Format(time.RFC1123Z))
}

func TestGoogleNewsFetcher_FetchCandidates_Success(t *testing.T) {
	now := time.Now()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := rssFeed(
			rssItem("台積電營收創新高", "https://example.com/a1", now.Add(-2*time.Hour)) +
				rssItem("台積電法說會重點", "https://example.com/a2", now.Add(-26*time.Hour)))
		w.Header().Set("Content-Type", "application/rss+xml")
		if _, err := w.Write([]byte(body)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)

	items, err := fetcher.FetchCandidates(context.Background(), testSecurity(), 7)
	if err != nil {
		t.Fatalf("FetchCandidates() error = %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("items length = %d, want 2", len(items))
	}
	if items[0].Title != "台積電營收創新高" {
		t.Errorf("items[0].Title = %q, want %q", items[0].Title, "台積電營收創新高")
	}
	if items[0].URL != "https://example.com/a1" {
		t.Errorf("items[0].URL = %q, want %q", items[0].URL, "https://example.com/a1")
	}
}

func TestGoogleNewsFetcher_FetchCandidates_QueryParams(t *testing.T) {
	var gotQuery, gotHL, gotGL, gotCEID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = q.Get("q")
		gotHL = q.Get("hl")
		gotGL = q.Get("gl")
		gotCEID = q.Get("ceid")
		w.Header().Set("Content-Type", "application/rss+xml")
		if _, err := w.Write([]byte(rssFeed(""))); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)

	if _, err := fetcher.FetchCandidates(context.Background(), testSecurity(), 7); err != nil {
		t.Fatalf("FetchCandidates() error = %v", err)
	}

	wantQuery := "台積電 (財報 OR 營收 OR 法說會 OR EPS) when:7d"
	if gotQuery != wantQuery {
		t.Errorf("query = %q, want %q", gotQuery, wantQuery)
	}
	if gotHL != "zh-TW" {
		t.Errorf("hl = %q, want %q", gotHL, "zh-TW")
	}
	if gotGL != "TW" {
		t.Errorf("gl = %q, want %q", gotGL, "TW")
	}
	if gotCEID != "TW:zh-Hant" {
		t.Errorf("ceid = %q, want %q", gotCEID, "TW:zh-Hant")
	}
}

func TestGoogleNewsFetcher_FetchCandidates_WindowFilter(t *testing.T) {
	now := time.Now()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := rssFeed(
			rssItem("最近的新聞", "https://example.com/recent", now.Add(-1*time.Hour)) +
				rssItem("過期的新聞", "https://example.com/stale", now.Add(-10*24*time.Hour)))
		w.Header().Set("Content-Type", "application/rss+xml")
		if _, err := w.Write([]byte(body)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)

	items, err := fetcher.FetchCandidates(context.Background(), testSecurity(), 7)
	if err != nil {
		t.Fatalf("FetchCandidates() error = %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("items length = %d, want 1 (stale item dropped)", len(items))
	}
	if items[0].URL != "https://example.com/recent" {
		t.Errorf("items[0].URL = %q, want %q", items[0].URL, "https://example.com/recent")
	}
}

func TestGoogleNewsFetcher_FetchCandidates_DuplicateURLs(t *testing.T) {
	now := time.Now()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := rssFeed(
			rssItem("第一則", "https://example.com/dup", now.Add(-1*time.Hour)) +
				rssItem("重複的連結", "https://example.com/dup", now.Add(-2*time.Hour)) +
				rssItem("另一則", "https://example.com/other", now.Add(-3*time.Hour)))
		w.Header().Set("Content-Type", "application/rss+xml")
		if _, err := w.Write([]byte(body)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)

	items, err := fetcher.FetchCandidates(context.Background(), testSecurity(), 7)
	if err != nil {
		t.Fatalf("FetchCandidates() error = %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("items length = %d, want 2 (duplicate dropped)", len(items))
	}
	if items[0].Title != "第一則" {
		t.Errorf("items[0].Title = %q, want first occurrence kept", items[0].Title)
	}
}

func TestGoogleNewsFetcher_FetchCandidates_EmptyFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		if _, err := w.Write([]byte(rssFeed(""))); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)

	items, err := fetcher.FetchCandidates(context.Background(), testSecurity(), 7)
	if err != nil {
		t.Fatalf("FetchCandidates() error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("items length = %d, want 0", len(items))
	}
}

func TestGoogleNewsFetcher_FetchCandidates_MissingPubDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := rssFeed(`    <item>
      <title>沒有日期的新聞</title>
      <link>https://example.com/nodate</link>
    </item>
`)
		w.Header().Set("Content-Type", "application/rss+xml")
		if _, err := w.Write([]byte(body)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)

	items, err := fetcher.FetchCandidates(context.Background(), testSecurity(), 7)
	if err != nil {
		t.Fatalf("FetchCandidates() error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("items length = %d, want 0 (undated item dropped)", len(items))
	}
}

func TestGoogleNewsFetcher_FetchCandidates_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)

	_, err := fetcher.FetchCandidates(context.Background(), testSecurity(), 7)
	if err == nil {
		t.Fatal("FetchCandidates() error = nil, want error")
	}
	if !errors.Is(err, entity.ErrSourceUnavailable) {
		t.Errorf("error = %v, want ErrSourceUnavailable", err)
	}
}

func TestGoogleNewsFetcher_FetchCandidates_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		if _, err := w.Write([]byte(rssFeed(""))); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	fetcher := newTestFetcher(server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.FetchCandidates(ctx, testSecurity(), 7)
	if err == nil {
		t.Fatal("FetchCandidates() error = nil, want context canceled error")
	}
}

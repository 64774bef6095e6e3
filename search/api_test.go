package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIProvider_ParsesResultPathAndFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"results": []map[string]any{
					{"name": "First", "link": "https://x.com/1", "body": "snippet one"},
					{"name": "Second", "link": "https://x.com/2", "body": "snippet two"},
				},
			},
		})
	}))
	defer srv.Close()

	p := NewAPIProvider(APIConfig{
		Endpoint:   srv.URL,
		ResultPath: "data.results",
		Fields:     map[string]string{"title": "name", "url": "link", "text": "body"},
		MaxPages:   1,
	})

	results, err := p.Search(context.Background(), "golang")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Title != "First" || results[0].URL != "https://x.com/1" {
		t.Errorf("unexpected result: %+v", results[0])
	}
}

func TestAPIProvider_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewAPIProvider(APIConfig{Endpoint: srv.URL, MaxPages: 1})
	if _, err := p.Search(context.Background(), "golang"); err == nil {
		t.Error("expected error on 403 response")
	}
}

func TestAPIProvider_EmptyQuery(t *testing.T) {
	p := NewAPIProvider(APIConfig{Endpoint: "http://example.invalid"})
	if _, err := p.Search(context.Background(), "   "); err != ErrInvalidQuery {
		t.Errorf("got %v, want ErrInvalidQuery", err)
	}
}

func TestAPIProvider_StopsPaginationOnEmptyPage(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var results []map[string]any
		if calls == 1 {
			results = []map[string]any{{"title": "one", "url": "https://x.com/1", "text": "t"}}
		}
		json.NewEncoder(w).Encode(results)
	}))
	defer srv.Close()

	p := NewAPIProvider(APIConfig{
		Endpoint:    srv.URL,
		PageParam:   "page",
		MaxPages:    6,
		PageDelayMs: 1,
	})

	results, err := p.Search(context.Background(), "golang")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if calls != 2 {
		t.Errorf("expected pagination to stop after an empty page, got %d calls", calls)
	}
}

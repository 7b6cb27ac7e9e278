package spotify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	catalog "diary-server/catalog/spotify"
)

type mockSearcher struct {
	result    *catalog.SearchResponse
	err       error
	lastQuery string
	lastLimit int
}

func (m *mockSearcher) SearchTracks(ctx context.Context, query string, limit int) (*catalog.SearchResponse, error) {
	m.lastQuery = query
	m.lastLimit = limit
	return m.result, m.err
}

func (m *mockSearcher) Status() catalog.TokenStatus {
	return catalog.TokenStatus{Configured: true, TokenCached: true}
}

func searchResult(ids ...string) *catalog.SearchResponse {
	var sr catalog.SearchResponse
	for _, id := range ids {
		sr.Tracks.Items = append(sr.Tracks.Items, catalog.Track{ID: id, Name: "Song " + id})
	}
	return &sr
}

func TestHandleSearch_PassesUpstreamShapeThrough(t *testing.T) {
	searcher := &mockSearcher{result: searchResult("t1", "t2")}
	handler := HandleSearch(searcher)

	req := httptest.NewRequest(http.MethodGet, "/api/spotify/search?q=queen&limit=10", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if searcher.lastQuery != "queen" || searcher.lastLimit != 10 {
		t.Errorf("searcher got (%q, %d), want (queen, 10)", searcher.lastQuery, searcher.lastLimit)
	}

	var resp catalog.SearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Tracks.Items) != 2 || resp.Tracks.Items[0].ID != "t1" {
		t.Errorf("tracks = %+v", resp.Tracks.Items)
	}
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	handler := HandleSearch(&mockSearcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/spotify/search?q=%20%20", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleSearch_NotConfigured(t *testing.T) {
	handler := HandleSearch(&mockSearcher{err: catalog.ErrNotConfigured})

	req := httptest.NewRequest(http.MethodGet, "/api/spotify/search?q=queen", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	var resp struct {
		Error string `json:"error"`
	}
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Error != "Spotify credentials not configured" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestHandleTokenCheck(t *testing.T) {
	handler := HandleTokenCheck(&mockSearcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/spotify/token-check", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var status catalog.TokenStatus
	json.NewDecoder(rec.Body).Decode(&status)
	if !status.Configured || !status.TokenCached {
		t.Errorf("status = %+v", status)
	}
}

package giphy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	catalog "diary-server/catalog/giphy"
)

type mockSearcher struct {
	result     *catalog.SearchResponse
	err        error
	lastQuery  string
	lastLimit  int
	lastOffset int
	trending   bool
}

func (m *mockSearcher) SearchStickers(ctx context.Context, query string, limit, offset int) (*catalog.SearchResponse, error) {
	m.lastQuery = query
	m.lastLimit = limit
	m.lastOffset = offset
	return m.result, m.err
}

func (m *mockSearcher) TrendingStickers(ctx context.Context, limit, offset int) (*catalog.SearchResponse, error) {
	m.trending = true
	m.lastLimit = limit
	m.lastOffset = offset
	return m.result, m.err
}

func TestHandleSearch(t *testing.T) {
	searcher := &mockSearcher{result: &catalog.SearchResponse{
		Data: []catalog.Sticker{{ID: "g1", Title: "hello"}},
	}}
	handler := HandleSearch(searcher)

	req := httptest.NewRequest(http.MethodGet, "/api/giphy/search?q=ciao&limit=5&offset=10", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if searcher.lastQuery != "ciao" || searcher.lastLimit != 5 || searcher.lastOffset != 10 {
		t.Errorf("searcher got (%q, %d, %d)", searcher.lastQuery, searcher.lastLimit, searcher.lastOffset)
	}

	var resp catalog.SearchResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Data) != 1 || resp.Data[0].ID != "g1" {
		t.Errorf("data = %+v", resp.Data)
	}
}

func TestHandleSearch_MissingQuery(t *testing.T) {
	handler := HandleSearch(&mockSearcher{})

	req := httptest.NewRequest(http.MethodGet, "/api/giphy/search", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleTrending(t *testing.T) {
	searcher := &mockSearcher{result: &catalog.SearchResponse{}}
	handler := HandleTrending(searcher)

	req := httptest.NewRequest(http.MethodGet, "/api/giphy/trending", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !searcher.trending {
		t.Error("trending endpoint did not hit TrendingStickers")
	}
}

func TestHandleTrending_NotConfigured(t *testing.T) {
	handler := HandleTrending(&mockSearcher{err: catalog.ErrNotConfigured})

	req := httptest.NewRequest(http.MethodGet, "/api/giphy/trending", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestHandleCategories(t *testing.T) {
	handler := HandleCategories()

	req := httptest.NewRequest(http.MethodGet, "/api/giphy/categories", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp CategoriesResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Categories) != 8 {
		t.Errorf("got %d categories, want 8", len(resp.Categories))
	}
	if resp.Categories[0].ID != "emotions" {
		t.Errorf("first category = %+v", resp.Categories[0])
	}
}

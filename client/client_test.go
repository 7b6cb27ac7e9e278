package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"diary-server/core"
)

func TestLogin_StoresToken(t *testing.T) {
	var sawAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Name != "Ilaria" {
			t.Errorf("login name = %q, want Ilaria", req.Name)
		}
		w.Write([]byte(`{"success":true,"token":"tok123","user":{"id":"u1","name":"Ilaria"}}`))
	})
	mux.HandleFunc("/api/todos", func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL)
	resp, err := c.Login(context.Background(), "Ilaria")
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if !resp.Success || resp.User.ID != "u1" {
		t.Errorf("response = %+v", resp)
	}

	if _, err := c.ListTodos(context.Background()); err != nil {
		t.Fatalf("ListTodos() failed: %v", err)
	}
	if sawAuth != "Bearer tok123" {
		t.Errorf("auth header = %q, want Bearer tok123", sawAuth)
	}
}

func TestLoadPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/albums/a1/pages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`[{"_id":"p1","albumId":"a1","pageNumber":1,"contents":[{"type":"text","content":"hi"}]}]`))
	}))
	defer server.Close()

	c := New(server.URL)
	pages, err := c.LoadPages(context.Background(), "a1")
	if err != nil {
		t.Fatalf("LoadPages() failed: %v", err)
	}
	if len(pages) != 1 || pages[0].ID != "p1" || len(pages[0].Contents) != 1 {
		t.Errorf("pages = %+v", pages)
	}
}

func TestUpdatePage_ErrorSurfacesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Page not found"}`))
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.UpdatePage(context.Background(), "a1", "nope", []core.PageContent{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); got != "server returned 404: Page not found" {
		t.Errorf("error = %q", got)
	}
}

func TestUpdatePage_NormalizesNilContents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Contents []core.PageContent `json:"contents"`
		}
		raw := json.NewDecoder(r.Body)
		if err := raw.Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Contents == nil {
			t.Error("contents serialized as null")
		}
		w.Write([]byte(`{"_id":"p1","albumId":"a1","pageNumber":1,"contents":[]}`))
	}))
	defer server.Close()

	c := New(server.URL)
	if _, err := c.UpdatePage(context.Background(), "a1", "p1", nil); err != nil {
		t.Fatalf("UpdatePage() failed: %v", err)
	}
}

func TestSearchTracks_FlattensRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "queen" {
			t.Errorf("q = %q, want queen", got)
		}
		w.Write([]byte(`{"tracks":{"items":[{
			"id":"t1","name":"Song",
			"artists":[{"name":"Band"},{"name":"Feat"}],
			"album":{"name":"Record","images":[{"url":"https://e/big.jpg"},{"url":"https://e/small.jpg"}]},
			"preview_url":"https://e/p.mp3"
		}]}}`))
	}))
	defer server.Close()

	c := New(server.URL)
	rows, err := c.SearchTracks(context.Background(), "queen", 20)
	if err != nil {
		t.Fatalf("SearchTracks() failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.ID != "t1" || row.Artist != "Band" || row.Album != "Record" {
		t.Errorf("row = %+v", row)
	}
	if row.ImageURL != "https://e/big.jpg" || row.PreviewURL != "https://e/p.mp3" {
		t.Errorf("row urls = %+v", row)
	}
}

func TestSearchStickers_FallsBackToFixedHeight(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{
			"id":"g1","title":"hi",
			"images":{"fixed_height":{"url":"https://e/fh.gif"},"fixed_height_small":{"url":"https://e/sm.gif"},"original":{"url":""}}
		}]}`))
	}))
	defer server.Close()

	c := New(server.URL)
	rows, err := c.SearchStickers(context.Background(), "ciao", 0)
	if err != nil {
		t.Fatalf("SearchStickers() failed: %v", err)
	}
	if len(rows) != 1 || rows[0].URL != "https://e/fh.gif" || rows[0].SmallURL != "https://e/sm.gif" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestCategories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/giphy/categories" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"categories":[{"id":"emotions","name":"Emotions","emoji":"x"},{"id":"animals","name":"Animals","emoji":"y"}]}`))
	}))
	defer server.Close()

	c := New(server.URL)
	names, err := c.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories() failed: %v", err)
	}
	if len(names) != 2 || names[0] != "Emotions" {
		t.Errorf("names = %v", names)
	}
}

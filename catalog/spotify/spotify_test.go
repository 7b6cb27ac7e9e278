package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T) (*Client, *atomic.Int32, *httptest.Server) {
	t.Helper()

	var tokenRequests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		n := tokenRequests.Add(1)

		auth := r.Header.Get("Authorization")
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("id:secret"))
		if auth != want {
			t.Errorf("auth header = %q, want %q", auth, want)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": fmt.Sprintf("token-%d", n),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tracks":{"items":[{"id":"t1","name":"Song"}]}}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := NewClient("id", "secret")
	client.authURL = server.URL + "/token"
	client.apiURL = server.URL
	return client, &tokenRequests, server
}

func TestSearchTracks_NotConfigured(t *testing.T) {
	client := NewClient("", "")
	if _, err := client.SearchTracks(context.Background(), "queen", 0); err != ErrNotConfigured {
		t.Errorf("got %v, want ErrNotConfigured", err)
	}
}

func TestAccessToken_Cached(t *testing.T) {
	client, tokenRequests, _ := newTestClient(t)
	ctx := context.Background()

	if _, err := client.SearchTracks(ctx, "queen", 0); err != nil {
		t.Fatalf("SearchTracks() failed: %v", err)
	}
	if _, err := client.SearchTracks(ctx, "abba", 0); err != nil {
		t.Fatalf("SearchTracks() failed: %v", err)
	}

	if got := tokenRequests.Load(); got != 1 {
		t.Errorf("token requested %d times, want 1", got)
	}
}

func TestAccessToken_RenewedBeforeExpiry(t *testing.T) {
	client, tokenRequests, _ := newTestClient(t)
	ctx := context.Background()

	now := time.Now()
	client.now = func() time.Time { return now }

	if _, err := client.SearchTracks(ctx, "queen", 0); err != nil {
		t.Fatalf("SearchTracks() failed: %v", err)
	}

	// Just inside the renewal buffer: 3600s lifetime minus the 60s
	// buffer means the cached token dies at +3540s.
	now = now.Add(3539 * time.Second)
	if _, err := client.SearchTracks(ctx, "abba", 0); err != nil {
		t.Fatalf("SearchTracks() failed: %v", err)
	}
	if got := tokenRequests.Load(); got != 1 {
		t.Fatalf("token requested %d times before expiry, want 1", got)
	}

	now = now.Add(2 * time.Second)
	if _, err := client.SearchTracks(ctx, "blur", 0); err != nil {
		t.Fatalf("SearchTracks() failed: %v", err)
	}
	if got := tokenRequests.Load(); got != 2 {
		t.Errorf("token requested %d times after expiry, want 2", got)
	}
}

func TestSearchTracks_Params(t *testing.T) {
	var gotQuery, gotMarket, gotLimit string
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotMarket = r.URL.Query().Get("market")
		gotLimit = r.URL.Query().Get("limit")
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header = %q, want Bearer tok", got)
		}
		w.Write([]byte(`{"tracks":{"items":[]}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient("id", "secret")
	client.authURL = server.URL + "/token"
	client.apiURL = server.URL

	if _, err := client.SearchTracks(context.Background(), "  queen  ", 200); err != nil {
		t.Fatalf("SearchTracks() failed: %v", err)
	}
	if gotQuery != "queen" {
		t.Errorf("q = %q, want trimmed query", gotQuery)
	}
	if gotMarket != "IT" {
		t.Errorf("market = %q, want IT", gotMarket)
	}
	if gotLimit != "50" {
		t.Errorf("limit = %q, want capped at 50", gotLimit)
	}
}

func TestStatus(t *testing.T) {
	client, _, _ := newTestClient(t)

	status := client.Status()
	if !status.Configured || status.TokenCached {
		t.Errorf("fresh client status = %+v", status)
	}

	if _, err := client.SearchTracks(context.Background(), "queen", 0); err != nil {
		t.Fatalf("SearchTracks() failed: %v", err)
	}
	status = client.Status()
	if !status.TokenCached || status.Expiry.IsZero() {
		t.Errorf("status after search = %+v", status)
	}
}

package spotify

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	catalog "diary-server/catalog/spotify"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	// Searcher is the slice of the catalog client the proxy needs.
	Searcher interface {
		SearchTracks(ctx context.Context, query string, limit int) (*catalog.SearchResponse, error)
		Status() catalog.TokenStatus
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

// HandleSearch proxies a track search to the music catalog, passing the
// upstream response shape through untouched.
func HandleSearch(client Searcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			writeError(w, r, http.StatusBadRequest, "Query parameter is required")
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		result, err := client.SearchTracks(r.Context(), query, limit)
		if errors.Is(err, catalog.ErrNotConfigured) {
			writeError(w, r, http.StatusInternalServerError, "Spotify credentials not configured")
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "query": query}).Error("Failed to search tracks")
			writeError(w, r, http.StatusInternalServerError, "Failed to search tracks")
			return
		}
		render.JSON(w, r, result)
	}
}

// HandleTokenCheck reports credential and token-cache state without
// leaking the token itself.
func HandleTokenCheck(client Searcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, client.Status())
	}
}

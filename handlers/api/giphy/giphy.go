package giphy

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	catalog "diary-server/catalog/giphy"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	// Searcher is the slice of the catalog client the proxy needs.
	Searcher interface {
		SearchStickers(ctx context.Context, query string, limit, offset int) (*catalog.SearchResponse, error)
		TrendingStickers(ctx context.Context, limit, offset int) (*catalog.SearchResponse, error)
	}

	CategoriesResponse struct {
		Categories []catalog.Category `json:"categories"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

func limitOffset(r *http.Request) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

// HandleSearch proxies a sticker search to the sticker catalog.
func HandleSearch(client Searcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			writeError(w, r, http.StatusBadRequest, "Query parameter is required")
			return
		}
		limit, offset := limitOffset(r)

		result, err := client.SearchStickers(r.Context(), query, limit, offset)
		if errors.Is(err, catalog.ErrNotConfigured) {
			writeError(w, r, http.StatusInternalServerError, "Giphy API key not configured")
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "query": query}).Error("Failed to search stickers")
			writeError(w, r, http.StatusInternalServerError, "Failed to search stickers")
			return
		}
		render.JSON(w, r, result)
	}
}

// HandleTrending proxies the trending-stickers listing.
func HandleTrending(client Searcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := limitOffset(r)

		result, err := client.TrendingStickers(r.Context(), limit, offset)
		if errors.Is(err, catalog.ErrNotConfigured) {
			writeError(w, r, http.StatusInternalServerError, "Giphy API key not configured")
			return
		}
		if err != nil {
			logrus.WithField("error", err).Error("Failed to load trending stickers")
			writeError(w, r, http.StatusInternalServerError, "Failed to load trending stickers")
			return
		}
		render.JSON(w, r, result)
	}
}

// HandleCategories returns the fixed sticker browse categories.
func HandleCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, CategoriesResponse{Categories: catalog.Categories()})
	}
}

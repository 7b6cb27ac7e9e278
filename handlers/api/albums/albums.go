package albums

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"diary-server/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

const (
	listLimit    = 50
	maxNameChars = 100
)

type (
	CreateAlbumRequest struct {
		Name       string `json:"name"`
		CoverImage string `json:"coverImage"`
	}

	PageRequest struct {
		Contents []core.PageContent `json:"contents"`
	}

	DeleteResponse struct {
		Success bool   `json:"success"`
		Error   string `json:"error,omitempty"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

// HandleList returns the newest albums.
func HandleList(store core.AlbumStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		albums, err := store.ListAlbums(r.Context(), listLimit)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to list albums")
			writeError(w, r, http.StatusInternalServerError, "Failed to list albums")
			return
		}
		render.JSON(w, r, albums)
	}
}

// HandleCreate creates an empty album (no pages yet).
func HandleCreate(store core.AlbumStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAlbumRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			writeError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" || req.CoverImage == "" {
			writeError(w, r, http.StatusBadRequest, "Name and cover image are required")
			return
		}
		if len(name) > maxNameChars {
			writeError(w, r, http.StatusBadRequest, "Name is too long")
			return
		}

		album := core.Album{Name: name, CoverImage: req.CoverImage}
		if _, err := store.CreateAlbum(r.Context(), &album); err != nil {
			logrus.WithField("error", err).Error("Failed to create album")
			writeError(w, r, http.StatusInternalServerError, "Failed to create album")
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, album)
	}
}

// HandleDelete removes an album and all of its pages.
func HandleDelete(store core.AlbumStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := store.DeleteAlbum(r.Context(), id)
		if errors.Is(err, core.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, DeleteResponse{Success: false, Error: "Album not found"})
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "album_id": id}).Error("Failed to delete album")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, DeleteResponse{Success: false, Error: "Failed to delete album"})
			return
		}
		render.JSON(w, r, DeleteResponse{Success: true})
	}
}

// HandleListPages returns an album's pages ordered by page number.
func HandleListPages(store core.AlbumStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		albumID := chi.URLParam(r, "id")

		pages, err := store.ListPages(r.Context(), albumID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "album_id": albumID}).Error("Failed to list pages")
			writeError(w, r, http.StatusInternalServerError, "Failed to list pages")
			return
		}
		render.JSON(w, r, pages)
	}
}

// HandleCreatePage appends a page; the store assigns the next page
// number and bumps the album's counter.
func HandleCreatePage(store core.AlbumStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		albumID := chi.URLParam(r, "id")

		var req PageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			writeError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}

		page, err := store.AppendPage(r.Context(), albumID, req.Contents)
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Album not found")
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "album_id": albumID}).Error("Failed to create page")
			writeError(w, r, http.StatusInternalServerError, "Failed to create page")
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, page)
	}
}

// HandleUpdatePage replaces a page's contents wholesale.
func HandleUpdatePage(store core.AlbumStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		albumID := chi.URLParam(r, "albumId")
		pageID := chi.URLParam(r, "pageId")

		var req PageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			writeError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}

		page, err := store.UpdatePage(r.Context(), albumID, pageID, req.Contents)
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Page not found")
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":    err,
				"album_id": albumID,
				"page_id":  pageID,
			}).Error("Failed to update page")
			writeError(w, r, http.StatusInternalServerError, "Failed to update page")
			return
		}
		render.JSON(w, r, page)
	}
}

package entries

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"diary-server/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

const listLimit = 50

type (
	CreateEntryRequest struct {
		Author      string            `json:"author"`
		Text        string            `json:"text"`
		Attachments []core.Attachment `json:"attachments,omitempty"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

// HandleList returns the newest diary entries. An optional limit query
// parameter narrows the page size; it is capped at 50.
func HandleList(store core.EntryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := listLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n < listLimit {
				limit = n
			}
		}

		entries, err := store.ListEntries(r.Context(), limit)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to list entries")
			writeError(w, r, http.StatusInternalServerError, "Failed to list entries")
			return
		}
		render.JSON(w, r, entries)
	}
}

// HandleCreate appends a new diary entry.
func HandleCreate(store core.EntryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			writeError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Author == "" || req.Text == "" {
			writeError(w, r, http.StatusBadRequest, "Author and text are required")
			return
		}
		if !core.IsAuthor(req.Author) {
			writeError(w, r, http.StatusBadRequest, "Unknown author")
			return
		}

		entry := core.Entry{
			Author:      req.Author,
			Text:        req.Text,
			Attachments: req.Attachments,
		}
		if _, err := store.CreateEntry(r.Context(), &entry); err != nil {
			logrus.WithField("error", err).Error("Failed to create entry")
			writeError(w, r, http.StatusInternalServerError, "Failed to create entry")
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, entry)
	}
}

// HandleListByDate returns the entries written on one day (UTC),
// oldest first. The date parameter is YYYY-MM-DD.
func HandleListByDate(store core.EntryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(chi.URLParam(r, "date"))
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}

		entries, err := store.ListEntriesByDate(r.Context(), day)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "date": raw}).Error("Failed to list entries by date")
			writeError(w, r, http.StatusInternalServerError, "Failed to list entries")
			return
		}
		render.JSON(w, r, entries)
	}
}

package todos

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

const listLimit = 50

type (
	CreateTodoRequest struct {
		Author string `json:"author"`
		Text   string `json:"text"`
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

// HandleList returns the newest todos.
func HandleList(store core.TodoStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		todos, err := store.ListTodos(r.Context(), listLimit)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to list todos")
			writeError(w, r, http.StatusInternalServerError, "Failed to list todos")
			return
		}
		render.JSON(w, r, todos)
	}
}

// HandleCreate adds a todo for one of the two authors.
func HandleCreate(store core.TodoStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateTodoRequest
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
		text := strings.TrimSpace(req.Text)
		if text == "" {
			writeError(w, r, http.StatusBadRequest, "Text must not be empty")
			return
		}

		todo := core.Todo{Author: req.Author, Text: text}
		if _, err := store.CreateTodo(r.Context(), &todo); err != nil {
			logrus.WithField("error", err).Error("Failed to create todo")
			writeError(w, r, http.StatusInternalServerError, "Failed to create todo")
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, todo)
	}
}

// HandleToggle flips a todo's completion state.
func HandleToggle(store core.TodoStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		todo, err := store.ToggleTodo(r.Context(), id)
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "Todo not found")
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "todo_id": id}).Error("Failed to toggle todo")
			writeError(w, r, http.StatusInternalServerError, "Failed to toggle todo")
			return
		}
		render.JSON(w, r, todo)
	}
}

// HandleDelete removes a todo.
func HandleDelete(store core.TodoStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := store.DeleteTodo(r.Context(), id)
		if errors.Is(err, core.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, DeleteResponse{Success: false, Error: "Todo not found"})
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "todo_id": id}).Error("Failed to delete todo")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, DeleteResponse{Success: false, Error: "Failed to delete todo"})
			return
		}
		render.JSON(w, r, DeleteResponse{Success: true})
	}
}

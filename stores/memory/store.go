package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"diary-server/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type store struct {
	mu      sync.RWMutex
	users   map[string]core.User
	entries map[string]core.Entry
	todos   map[string]core.Todo
	albums  map[string]core.Album
	pages   map[string]core.Page
}

func NewStore() core.Store {
	return &store{
		users:   make(map[string]core.User),
		entries: make(map[string]core.Entry),
		todos:   make(map[string]core.Todo),
		albums:  make(map[string]core.Album),
		pages:   make(map[string]core.Page),
	}
}

func (s *store) FindUserByName(ctx context.Context, name string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Name == name {
			user := u
			return &user, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *store) CreateUser(ctx context.Context, user *core.User) (string, error) {
	id := ulid.Make().String()
	now := time.Now()

	s.mu.Lock()
	stored := *user
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.users[id] = stored
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"user_id": id,
		"name":    user.Name,
	}).Info("User created")
	*user = stored
	return id, nil
}

func (s *store) TouchLastLogin(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return core.ErrNotFound
	}
	user.LastLogin = time.Now()
	user.UpdatedAt = user.LastLogin
	s.users[id] = user
	return nil
}

func (s *store) ListEntries(ctx context.Context, limit int) ([]core.Entry, error) {
	s.mu.RLock()
	entries := make([]core.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	// Newest first, like the diary timeline.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date.Equal(entries[j].Date) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].Date.After(entries[j].Date)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *store) CreateEntry(ctx context.Context, entry *core.Entry) (string, error) {
	id := ulid.Make().String()
	now := time.Now()

	s.mu.Lock()
	stored := *entry
	stored.ID = id
	if stored.Date.IsZero() {
		stored.Date = now
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.entries[id] = stored
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"entry_id": id,
		"author":   entry.Author,
	}).Info("Entry created")
	*entry = stored
	return id, nil
}

func (s *store) ListEntriesByDate(ctx context.Context, day time.Time) ([]core.Entry, error) {
	dayStart := day.Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	s.mu.RLock()
	entries := make([]core.Entry, 0)
	for _, e := range s.entries {
		if !e.Date.Before(dayStart) && e.Date.Before(dayEnd) {
			entries = append(entries, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries, nil
}

func (s *store) ListTodos(ctx context.Context, limit int) ([]core.Todo, error) {
	s.mu.RLock()
	todos := make([]core.Todo, 0, len(s.todos))
	for _, t := range s.todos {
		todos = append(todos, t)
	}
	s.mu.RUnlock()

	sort.Slice(todos, func(i, j int) bool {
		if todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].ID > todos[j].ID
		}
		return todos[i].CreatedAt.After(todos[j].CreatedAt)
	})
	if limit > 0 && len(todos) > limit {
		todos = todos[:limit]
	}
	return todos, nil
}

func (s *store) CreateTodo(ctx context.Context, todo *core.Todo) (string, error) {
	id := ulid.Make().String()
	now := time.Now()

	s.mu.Lock()
	stored := *todo
	stored.ID = id
	stored.Completed = false
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.todos[id] = stored
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"todo_id": id,
		"author":  todo.Author,
	}).Info("Todo created")
	*todo = stored
	return id, nil
}

func (s *store) ToggleTodo(ctx context.Context, id string) (*core.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.todos[id]
	if !ok {
		logrus.WithField("todo_id", id).Warn("Todo with specified ID not found")
		return nil, core.ErrNotFound
	}
	todo.Completed = !todo.Completed
	todo.UpdatedAt = time.Now()
	s.todos[id] = todo
	return &todo, nil
}

func (s *store) DeleteTodo(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.todos[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.todos, id)
	return nil
}

func (s *store) ListAlbums(ctx context.Context, limit int) ([]core.Album, error) {
	s.mu.RLock()
	albums := make([]core.Album, 0, len(s.albums))
	for _, a := range s.albums {
		albums = append(albums, a)
	}
	s.mu.RUnlock()

	sort.Slice(albums, func(i, j int) bool {
		if albums[i].CreatedAt.Equal(albums[j].CreatedAt) {
			return albums[i].ID > albums[j].ID
		}
		return albums[i].CreatedAt.After(albums[j].CreatedAt)
	})
	if limit > 0 && len(albums) > limit {
		albums = albums[:limit]
	}
	return albums, nil
}

func (s *store) CreateAlbum(ctx context.Context, album *core.Album) (string, error) {
	id := ulid.Make().String()
	now := time.Now()

	s.mu.Lock()
	stored := *album
	stored.ID = id
	stored.TotalPages = 0
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.albums[id] = stored
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"album_id": id,
		"name":     album.Name,
	}).Info("Album created")
	*album = stored
	return id, nil
}

func (s *store) DeleteAlbum(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.albums[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.albums, id)
	for pageID, page := range s.pages {
		if page.AlbumID == id {
			delete(s.pages, pageID)
		}
	}
	return nil
}

func (s *store) ListPages(ctx context.Context, albumID string) ([]core.Page, error) {
	s.mu.RLock()
	pages := make([]core.Page, 0)
	for _, p := range s.pages {
		if p.AlbumID == albumID {
			pages = append(pages, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(pages, func(i, j int) bool {
		return pages[i].PageNumber < pages[j].PageNumber
	})
	return pages, nil
}

func (s *store) AppendPage(ctx context.Context, albumID string, contents []core.PageContent) (*core.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	album, ok := s.albums[albumID]
	if !ok {
		logrus.WithField("album_id", albumID).Warn("Album with specified ID not found")
		return nil, core.ErrNotFound
	}

	now := time.Now()
	page := core.Page{
		ID:         ulid.Make().String(),
		AlbumID:    albumID,
		PageNumber: album.TotalPages + 1,
		Contents:   contents,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if page.Contents == nil {
		page.Contents = []core.PageContent{}
	}
	s.pages[page.ID] = page

	album.TotalPages = page.PageNumber
	album.UpdatedAt = now
	s.albums[albumID] = album

	logrus.WithFields(logrus.Fields{
		"album_id":    albumID,
		"page_id":     page.ID,
		"page_number": page.PageNumber,
	}).Info("Page appended")
	return &page, nil
}

func (s *store) UpdatePage(ctx context.Context, albumID, pageID string, contents []core.PageContent) (*core.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, ok := s.pages[pageID]
	if !ok || page.AlbumID != albumID {
		logrus.WithFields(logrus.Fields{
			"album_id": albumID,
			"page_id":  pageID,
		}).Warn("Page with specified ID not found")
		return nil, core.ErrNotFound
	}

	page.Contents = contents
	if page.Contents == nil {
		page.Contents = []core.PageContent{}
	}
	page.UpdatedAt = time.Now()
	s.pages[pageID] = page
	return &page, nil
}

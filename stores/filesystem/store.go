package filesystem

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"diary-server/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// fsStore keeps one JSON file per record under
// basePath/{users,entries,todos,albums,pages}/<id>.json.
type fsStore struct {
	basePath string
	// Guards read-modify-write sequences (page append bumps the album
	// counter across two files).
	mu sync.Mutex
}

func NewStore(basePath string) core.Store {
	for _, dir := range []string{"users", "entries", "todos", "albums", "pages"} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0755); err != nil {
			logrus.WithError(err).Fatal("Failed to create storage directory")
		}
	}
	return &fsStore{basePath: basePath}
}

func (s *fsStore) path(collection, id string) string {
	return filepath.Join(s.basePath, collection, id+".json")
}

func (s *fsStore) write(collection, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(collection, id), data, 0644)
}

func (s *fsStore) read(collection, id string, v any) error {
	data, err := os.ReadFile(s.path(collection, id))
	if err != nil {
		if os.IsNotExist(err) {
			return core.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}

// readAll decodes every record in a collection via decode, which appends
// to its own result slice.
func (s *fsStore) readAll(collection string, decode func(data []byte) error) error {
	dir := filepath.Join(s.basePath, collection)
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			logrus.WithError(err).WithField("file", file.Name()).Warn("Skipping unreadable record")
			continue
		}
		if err := decode(data); err != nil {
			logrus.WithError(err).WithField("file", file.Name()).Warn("Skipping malformed record")
		}
	}
	return nil
}

func (s *fsStore) FindUserByName(ctx context.Context, name string) (*core.User, error) {
	var found *core.User
	err := s.readAll("users", func(data []byte) error {
		var u core.User
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		if u.Name == name {
			found = &u
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, core.ErrNotFound
	}
	return found, nil
}

func (s *fsStore) CreateUser(ctx context.Context, user *core.User) (string, error) {
	now := time.Now()
	user.ID = ulid.Make().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if err := s.write("users", user.ID, user); err != nil {
		logrus.WithError(err).Error("Failed to create user")
		return "", err
	}
	return user.ID, nil
}

func (s *fsStore) TouchLastLogin(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user core.User
	if err := s.read("users", id, &user); err != nil {
		return err
	}
	user.LastLogin = time.Now()
	user.UpdatedAt = user.LastLogin
	return s.write("users", id, &user)
}

func (s *fsStore) ListEntries(ctx context.Context, limit int) ([]core.Entry, error) {
	entries := make([]core.Entry, 0)
	err := s.readAll("entries", func(data []byte) error {
		var e core.Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
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

func (s *fsStore) CreateEntry(ctx context.Context, entry *core.Entry) (string, error) {
	now := time.Now()
	entry.ID = ulid.Make().String()
	if entry.Date.IsZero() {
		entry.Date = now
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if err := s.write("entries", entry.ID, entry); err != nil {
		logrus.WithError(err).Error("Failed to create entry")
		return "", err
	}
	return entry.ID, nil
}

func (s *fsStore) ListEntriesByDate(ctx context.Context, day time.Time) ([]core.Entry, error) {
	dayStart := day.Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	entries := make([]core.Entry, 0)
	err := s.readAll("entries", func(data []byte) error {
		var e core.Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		if !e.Date.Before(dayStart) && e.Date.Before(dayEnd) {
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries, nil
}

func (s *fsStore) ListTodos(ctx context.Context, limit int) ([]core.Todo, error) {
	todos := make([]core.Todo, 0)
	err := s.readAll("todos", func(data []byte) error {
		var t core.Todo
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		todos = append(todos, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
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

func (s *fsStore) CreateTodo(ctx context.Context, todo *core.Todo) (string, error) {
	now := time.Now()
	todo.ID = ulid.Make().String()
	todo.Completed = false
	todo.CreatedAt = now
	todo.UpdatedAt = now
	if err := s.write("todos", todo.ID, todo); err != nil {
		logrus.WithError(err).Error("Failed to create todo")
		return "", err
	}
	return todo.ID, nil
}

func (s *fsStore) ToggleTodo(ctx context.Context, id string) (*core.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var todo core.Todo
	if err := s.read("todos", id, &todo); err != nil {
		return nil, err
	}
	todo.Completed = !todo.Completed
	todo.UpdatedAt = time.Now()
	if err := s.write("todos", id, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (s *fsStore) DeleteTodo(ctx context.Context, id string) error {
	err := os.Remove(s.path("todos", id))
	if os.IsNotExist(err) {
		return core.ErrNotFound
	}
	return err
}

func (s *fsStore) ListAlbums(ctx context.Context, limit int) ([]core.Album, error) {
	albums := make([]core.Album, 0)
	err := s.readAll("albums", func(data []byte) error {
		var a core.Album
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		albums = append(albums, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
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

func (s *fsStore) CreateAlbum(ctx context.Context, album *core.Album) (string, error) {
	now := time.Now()
	album.ID = ulid.Make().String()
	album.TotalPages = 0
	album.CreatedAt = now
	album.UpdatedAt = now
	if err := s.write("albums", album.ID, album); err != nil {
		logrus.WithError(err).Error("Failed to create album")
		return "", err
	}
	return album.ID, nil
}

func (s *fsStore) DeleteAlbum(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path("albums", id))
	if os.IsNotExist(err) {
		return core.ErrNotFound
	}
	if err != nil {
		return err
	}

	pages, err := s.listPagesLocked(id)
	if err != nil {
		return err
	}
	for _, page := range pages {
		if err := os.Remove(s.path("pages", page.ID)); err != nil && !os.IsNotExist(err) {
			logrus.WithError(err).WithField("page_id", page.ID).Warn("Failed to remove page file")
		}
	}
	return nil
}

func (s *fsStore) listPagesLocked(albumID string) ([]core.Page, error) {
	pages := make([]core.Page, 0)
	err := s.readAll("pages", func(data []byte) error {
		var p core.Page
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		if p.AlbumID == albumID {
			pages = append(pages, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].PageNumber < pages[j].PageNumber
	})
	return pages, nil
}

func (s *fsStore) ListPages(ctx context.Context, albumID string) ([]core.Page, error) {
	return s.listPagesLocked(albumID)
}

func (s *fsStore) AppendPage(ctx context.Context, albumID string, contents []core.PageContent) (*core.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var album core.Album
	if err := s.read("albums", albumID, &album); err != nil {
		return nil, err
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
	if err := s.write("pages", page.ID, &page); err != nil {
		return nil, err
	}

	album.TotalPages = page.PageNumber
	album.UpdatedAt = now
	if err := s.write("albums", albumID, &album); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"album_id":    albumID,
		"page_id":     page.ID,
		"page_number": page.PageNumber,
	}).Info("Page appended")
	return &page, nil
}

func (s *fsStore) UpdatePage(ctx context.Context, albumID, pageID string, contents []core.PageContent) (*core.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var page core.Page
	if err := s.read("pages", pageID, &page); err != nil {
		return nil, err
	}
	if page.AlbumID != albumID {
		return nil, core.ErrNotFound
	}

	page.Contents = contents
	if page.Contents == nil {
		page.Contents = []core.PageContent{}
	}
	page.UpdatedAt = time.Now()
	if err := s.write("pages", pageID, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

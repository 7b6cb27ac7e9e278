package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"diary-server/core"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type store struct {
	db *sql.DB
}

func NewStore(dataSourceName string) core.Store {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open sqlite database")
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			avatar TEXT,
			last_login TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			author TEXT NOT NULL,
			text TEXT NOT NULL,
			attachments TEXT,
			date TIMESTAMP NOT NULL,
			edited INTEGER NOT NULL DEFAULT 0,
			edited_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS todos (
			id TEXT PRIMARY KEY,
			author TEXT NOT NULL,
			text TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS albums (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			cover_image TEXT NOT NULL,
			total_pages INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS pages (
			id TEXT PRIMARY KEY,
			album_id TEXT NOT NULL,
			page_number INTEGER NOT NULL,
			contents TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE(album_id, page_number)
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			logrus.WithError(err).Fatal("Failed to create schema")
		}
	}

	return &store{db}
}

func (s *store) FindUserByName(ctx context.Context, name string) (*core.User, error) {
	var user core.User
	var lastLogin sql.NullTime
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, avatar, last_login, created_at, updated_at FROM users WHERE name = ?",
		name).Scan(&user.ID, &user.Name, &user.Avatar, &lastLogin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrNotFound
		}
		logrus.WithError(err).Error("Failed to find user")
		return nil, err
	}
	if lastLogin.Valid {
		user.LastLogin = lastLogin.Time
	}
	return &user, nil
}

func (s *store) CreateUser(ctx context.Context, user *core.User) (string, error) {
	now := time.Now()
	user.ID = ulid.Make().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, avatar, last_login, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Avatar, user.LastLogin, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		logrus.WithError(err).Error("Failed to create user")
		return "", err
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "name": user.Name}).Info("User created")
	return user.ID, nil
}

func (s *store) TouchLastLogin(ctx context.Context, id string) error {
	now := time.Now()
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?", now, now, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *store) ListEntries(ctx context.Context, limit int) ([]core.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, author, text, attachments, date, edited, edited_at, created_at, updated_at FROM entries ORDER BY date DESC, id DESC LIMIT ?",
		limitOrMax(limit))
	if err != nil {
		logrus.WithError(err).Error("Failed to list entries")
		return nil, err
	}
	defer closeRows(rows, "entry")
	return scanEntries(rows)
}

func (s *store) CreateEntry(ctx context.Context, entry *core.Entry) (string, error) {
	now := time.Now()
	entry.ID = ulid.Make().String()
	if entry.Date.IsZero() {
		entry.Date = now
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now

	attachments, err := json.Marshal(entry.Attachments)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO entries (id, author, text, attachments, date, edited, edited_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		entry.ID, entry.Author, entry.Text, string(attachments), entry.Date, entry.Edited, entry.EditedAt, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		logrus.WithError(err).Error("Failed to create entry")
		return "", err
	}
	logrus.WithFields(logrus.Fields{"entry_id": entry.ID, "author": entry.Author}).Info("Entry created")
	return entry.ID, nil
}

func (s *store) ListEntriesByDate(ctx context.Context, day time.Time) ([]core.Entry, error) {
	dayStart := day.Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, author, text, attachments, date, edited, edited_at, created_at, updated_at FROM entries WHERE date >= ? AND date < ? ORDER BY date ASC",
		dayStart, dayEnd)
	if err != nil {
		logrus.WithError(err).Error("Failed to list entries by date")
		return nil, err
	}
	defer closeRows(rows, "entry")
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]core.Entry, error) {
	entries := make([]core.Entry, 0)
	for rows.Next() {
		var e core.Entry
		var attachments sql.NullString
		var editedAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.Author, &e.Text, &attachments, &e.Date, &e.Edited, &editedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
			logrus.WithError(err).Error("Failed to scan entry")
			continue
		}
		if attachments.Valid && attachments.String != "" && attachments.String != "null" {
			if err := json.Unmarshal([]byte(attachments.String), &e.Attachments); err != nil {
				logrus.WithError(err).WithField("entry_id", e.ID).Warn("Malformed attachments")
			}
		}
		if editedAt.Valid {
			t := editedAt.Time
			e.EditedAt = &t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *store) ListTodos(ctx context.Context, limit int) ([]core.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, author, text, completed, created_at, updated_at FROM todos ORDER BY created_at DESC, id DESC LIMIT ?",
		limitOrMax(limit))
	if err != nil {
		logrus.WithError(err).Error("Failed to list todos")
		return nil, err
	}
	defer closeRows(rows, "todo")

	todos := make([]core.Todo, 0)
	for rows.Next() {
		var t core.Todo
		if err := rows.Scan(&t.ID, &t.Author, &t.Text, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			logrus.WithError(err).Error("Failed to scan todo")
			continue
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func (s *store) CreateTodo(ctx context.Context, todo *core.Todo) (string, error) {
	now := time.Now()
	todo.ID = ulid.Make().String()
	todo.Completed = false
	todo.CreatedAt = now
	todo.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO todos (id, author, text, completed, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		todo.ID, todo.Author, todo.Text, todo.Completed, todo.CreatedAt, todo.UpdatedAt)
	if err != nil {
		logrus.WithError(err).Error("Failed to create todo")
		return "", err
	}
	logrus.WithFields(logrus.Fields{"todo_id": todo.ID, "author": todo.Author}).Info("Todo created")
	return todo.ID, nil
}

func (s *store) ToggleTodo(ctx context.Context, id string) (*core.Todo, error) {
	now := time.Now()
	result, err := s.db.ExecContext(ctx,
		"UPDATE todos SET completed = NOT completed, updated_at = ? WHERE id = ?", now, id)
	if err != nil {
		return nil, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		logrus.WithField("todo_id", id).Warn("Todo with specified ID not found")
		return nil, core.ErrNotFound
	}

	var t core.Todo
	err = s.db.QueryRowContext(ctx,
		"SELECT id, author, text, completed, created_at, updated_at FROM todos WHERE id = ?",
		id).Scan(&t.ID, &t.Author, &t.Text, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *store) DeleteTodo(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *store) ListAlbums(ctx context.Context, limit int) ([]core.Album, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, cover_image, total_pages, created_at, updated_at FROM albums ORDER BY created_at DESC, id DESC LIMIT ?",
		limitOrMax(limit))
	if err != nil {
		logrus.WithError(err).Error("Failed to list albums")
		return nil, err
	}
	defer closeRows(rows, "album")

	albums := make([]core.Album, 0)
	for rows.Next() {
		var a core.Album
		if err := rows.Scan(&a.ID, &a.Name, &a.CoverImage, &a.TotalPages, &a.CreatedAt, &a.UpdatedAt); err != nil {
			logrus.WithError(err).Error("Failed to scan album")
			continue
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

func (s *store) CreateAlbum(ctx context.Context, album *core.Album) (string, error) {
	now := time.Now()
	album.ID = ulid.Make().String()
	album.TotalPages = 0
	album.CreatedAt = now
	album.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO albums (id, name, cover_image, total_pages, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		album.ID, album.Name, album.CoverImage, album.TotalPages, album.CreatedAt, album.UpdatedAt)
	if err != nil {
		logrus.WithError(err).Error("Failed to create album")
		return "", err
	}
	logrus.WithFields(logrus.Fields{"album_id": album.ID, "name": album.Name}).Info("Album created")
	return album.ID, nil
}

func (s *store) DeleteAlbum(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, "DELETE FROM albums WHERE id = ?", id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM pages WHERE album_id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *store) ListPages(ctx context.Context, albumID string) ([]core.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, album_id, page_number, contents, created_at, updated_at FROM pages WHERE album_id = ? ORDER BY page_number ASC",
		albumID)
	if err != nil {
		logrus.WithError(err).Error("Failed to list pages")
		return nil, err
	}
	defer closeRows(rows, "page")

	pages := make([]core.Page, 0)
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			logrus.WithError(err).Error("Failed to scan page")
			continue
		}
		pages = append(pages, *page)
	}
	return pages, rows.Err()
}

func scanPage(rows *sql.Rows) (*core.Page, error) {
	var p core.Page
	var contents string
	if err := rows.Scan(&p.ID, &p.AlbumID, &p.PageNumber, &contents, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(contents), &p.Contents); err != nil {
		return nil, err
	}
	if p.Contents == nil {
		p.Contents = []core.PageContent{}
	}
	return &p, nil
}

func (s *store) AppendPage(ctx context.Context, albumID string, contents []core.PageContent) (*core.Page, error) {
	if contents == nil {
		contents = []core.PageContent{}
	}
	data, err := json.Marshal(contents)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var totalPages int
	err = tx.QueryRowContext(ctx, "SELECT total_pages FROM albums WHERE id = ?", albumID).Scan(&totalPages)
	if err != nil {
		if err == sql.ErrNoRows {
			logrus.WithField("album_id", albumID).Warn("Album with specified ID not found")
			return nil, core.ErrNotFound
		}
		return nil, err
	}

	now := time.Now()
	page := core.Page{
		ID:         ulid.Make().String(),
		AlbumID:    albumID,
		PageNumber: totalPages + 1,
		Contents:   contents,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO pages (id, album_id, page_number, contents, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		page.ID, page.AlbumID, page.PageNumber, string(data), page.CreatedAt, page.UpdatedAt)
	if err != nil {
		logrus.WithError(err).Error("Failed to create page")
		return nil, err
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE albums SET total_pages = ?, updated_at = ? WHERE id = ?",
		page.PageNumber, now, albumID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"album_id":    albumID,
		"page_id":     page.ID,
		"page_number": page.PageNumber,
	}).Info("Page appended")
	return &page, nil
}

func (s *store) UpdatePage(ctx context.Context, albumID, pageID string, contents []core.PageContent) (*core.Page, error) {
	if contents == nil {
		contents = []core.PageContent{}
	}
	data, err := json.Marshal(contents)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx,
		"UPDATE pages SET contents = ?, updated_at = ? WHERE id = ? AND album_id = ?",
		string(data), now, pageID, albumID)
	if err != nil {
		logrus.WithError(err).Error("Failed to update page")
		return nil, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		logrus.WithFields(logrus.Fields{"album_id": albumID, "page_id": pageID}).Warn("Page with specified ID not found")
		return nil, core.ErrNotFound
	}

	var p core.Page
	var contentsRaw string
	err = s.db.QueryRowContext(ctx,
		"SELECT id, album_id, page_number, contents, created_at, updated_at FROM pages WHERE id = ?",
		pageID).Scan(&p.ID, &p.AlbumID, &p.PageNumber, &contentsRaw, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(contentsRaw), &p.Contents); err != nil {
		return nil, err
	}
	return &p, nil
}

func limitOrMax(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		logrus.WithError(err).Warnf("Failed to close %s rows", what)
	}
}

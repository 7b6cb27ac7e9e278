package core

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when an id does not resolve to a record.
var ErrNotFound = errors.New("not found")

type (
	// User is one of the two diary owners.
	User struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Avatar    string    `json:"avatar"`
		LastLogin time.Time `json:"lastLogin"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// Attachment is an inline extra on a diary entry.
	Attachment struct {
		Type    string `json:"type"` // image | sticker | emoji
		Content string `json:"content"`
		URL     string `json:"url,omitempty"`
	}

	// Entry is a dated diary entry.
	Entry struct {
		ID          string       `json:"_id"`
		Author      string       `json:"author"`
		Text        string       `json:"text"`
		Attachments []Attachment `json:"attachments,omitempty"`
		Date        time.Time    `json:"date"`
		Edited      bool         `json:"edited"`
		EditedAt    *time.Time   `json:"editedAt,omitempty"`
		CreatedAt   time.Time    `json:"createdAt"`
		UpdatedAt   time.Time    `json:"updatedAt"`
	}

	// Todo is a shared to-do item.
	Todo struct {
		ID        string    `json:"_id"`
		Author    string    `json:"author"`
		Text      string    `json:"text"`
		Completed bool      `json:"completed"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// Album is a scrapbook of sequentially numbered pages.
	Album struct {
		ID         string    `json:"_id"`
		Name       string    `json:"name"`
		CoverImage string    `json:"coverImage"`
		TotalPages int       `json:"totalPages"`
		CreatedAt  time.Time `json:"createdAt"`
		UpdatedAt  time.Time `json:"updatedAt"`
	}

	// Position is a top-left offset in canvas-local coordinates.
	Position struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	// Size is an element's rendered width and height.
	Size struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}

	// TrackData is the embedded payload of a music-track element.
	TrackData struct {
		TrackID    string `json:"trackId"`
		TrackName  string `json:"trackName"`
		ArtistName string `json:"artistName"`
		AlbumName  string `json:"albumName"`
		ImageURL   string `json:"imageUrl"`
		PreviewURL string `json:"previewUrl,omitempty"`
	}

	// StickerData is the embedded payload of a sticker element.
	StickerData struct {
		GiphyID     string `json:"giphyId"`
		Title       string `json:"title"`
		OriginalURL string `json:"originalUrl"`
		SmallURL    string `json:"smallUrl"`
	}

	// PageContent is one placed item in a page's persisted contents.
	// Geometry fields are optional on the wire; readers substitute
	// per-kind defaults for short records.
	PageContent struct {
		Type        string       `json:"type"` // text | image | spotify | sticker
		Content     string       `json:"content"`
		Position    *Position    `json:"position,omitempty"`
		Size        *Size        `json:"size,omitempty"`
		Rotation    *float64     `json:"rotation,omitempty"`
		ZIndex      *int         `json:"zIndex,omitempty"`
		FontSize    *float64     `json:"fontSize,omitempty"`
		TrackData   *TrackData   `json:"spotifyData,omitempty"`
		StickerData *StickerData `json:"stickerData,omitempty"`
	}

	// Page is one saved arrangement of elements in an album.
	// (AlbumID, PageNumber) is unique per store.
	Page struct {
		ID         string        `json:"_id"`
		AlbumID    string        `json:"albumId"`
		PageNumber int           `json:"pageNumber"`
		Contents   []PageContent `json:"contents"`
		CreatedAt  time.Time     `json:"createdAt"`
		UpdatedAt  time.Time     `json:"updatedAt"`
	}

	UserStore interface {
		FindUserByName(ctx context.Context, name string) (*User, error)
		CreateUser(ctx context.Context, user *User) (string, error)
		TouchLastLogin(ctx context.Context, id string) error
	}

	EntryStore interface {
		ListEntries(ctx context.Context, limit int) ([]Entry, error)
		CreateEntry(ctx context.Context, entry *Entry) (string, error)
		ListEntriesByDate(ctx context.Context, day time.Time) ([]Entry, error)
	}

	TodoStore interface {
		ListTodos(ctx context.Context, limit int) ([]Todo, error)
		CreateTodo(ctx context.Context, todo *Todo) (string, error)
		ToggleTodo(ctx context.Context, id string) (*Todo, error)
		DeleteTodo(ctx context.Context, id string) error
	}

	AlbumStore interface {
		ListAlbums(ctx context.Context, limit int) ([]Album, error)
		CreateAlbum(ctx context.Context, album *Album) (string, error)
		// DeleteAlbum removes the album and all of its pages.
		DeleteAlbum(ctx context.Context, id string) error
		ListPages(ctx context.Context, albumID string) ([]Page, error)
		// AppendPage creates a page numbered totalPages+1 and bumps the
		// album's page counter.
		AppendPage(ctx context.Context, albumID string, contents []PageContent) (*Page, error)
		// UpdatePage replaces a page's contents wholesale.
		UpdatePage(ctx context.Context, albumID, pageID string, contents []PageContent) (*Page, error)
	}

	// Store is the full persistence surface of the diary service.
	Store interface {
		UserStore
		EntryStore
		TodoStore
		AlbumStore
	}
)

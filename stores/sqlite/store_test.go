package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"diary-server/core"
)

func TestMain(m *testing.M) {
	if !CGOEnabled {
		fmt.Println("skipping sqlite store tests: CGO disabled")
		os.Exit(0)
	}

	os.Exit(m.Run())
}

func setupTestStore(t *testing.T) core.Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "test.db"))
}

func TestUserRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := &core.User{Name: "Ilaria", Avatar: "https://e/a.png"}
	id, err := store.CreateUser(ctx, user)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	found, err := store.FindUserByName(ctx, "Ilaria")
	if err != nil {
		t.Fatalf("FindUserByName() failed: %v", err)
	}
	if found.ID != id || found.Avatar != "https://e/a.png" {
		t.Errorf("found = %+v", found)
	}

	if err := store.TouchLastLogin(ctx, id); err != nil {
		t.Fatalf("TouchLastLogin() failed: %v", err)
	}
	found, _ = store.FindUserByName(ctx, "Ilaria")
	if found.LastLogin.IsZero() {
		t.Error("lastLogin not persisted")
	}

	if err := store.TouchLastLogin(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("TouchLastLogin(missing): got %v, want ErrNotFound", err)
	}
}

func TestEntriesWithAttachments(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entry := &core.Entry{
		Author: "Lorenzo",
		Text:   "gita al mare",
		Date:   time.Date(2025, 7, 14, 18, 30, 0, 0, time.UTC),
		Attachments: []core.Attachment{
			{Type: "emoji", Content: "🌊"},
			{Type: "image", Content: "photo", URL: "https://e/p.jpg"},
		},
	}
	if _, err := store.CreateEntry(ctx, entry); err != nil {
		t.Fatalf("CreateEntry() failed: %v", err)
	}

	entries, err := store.ListEntries(ctx, 0)
	if err != nil {
		t.Fatalf("ListEntries() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if len(entries[0].Attachments) != 2 || entries[0].Attachments[1].URL != "https://e/p.jpg" {
		t.Errorf("attachments = %+v", entries[0].Attachments)
	}

	byDay, err := store.ListEntriesByDate(ctx, time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListEntriesByDate() failed: %v", err)
	}
	if len(byDay) != 1 {
		t.Errorf("got %d entries for the day, want 1", len(byDay))
	}

	otherDay, _ := store.ListEntriesByDate(ctx, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC))
	if len(otherDay) != 0 {
		t.Errorf("got %d entries for the wrong day, want 0", len(otherDay))
	}
}

func TestTodoToggleAndDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	todo := &core.Todo{Author: "Ilaria", Text: "comprare i biglietti"}
	id, err := store.CreateTodo(ctx, todo)
	if err != nil {
		t.Fatalf("CreateTodo() failed: %v", err)
	}

	toggled, err := store.ToggleTodo(ctx, id)
	if err != nil {
		t.Fatalf("ToggleTodo() failed: %v", err)
	}
	if !toggled.Completed {
		t.Error("toggle did not complete the todo")
	}

	if err := store.DeleteTodo(ctx, id); err != nil {
		t.Fatalf("DeleteTodo() failed: %v", err)
	}
	if err := store.DeleteTodo(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteTodo() twice: got %v, want ErrNotFound", err)
	}
}

func TestAppendPageBumpsCounter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	album := &core.Album{Name: "Estate", CoverImage: "https://e/c.jpg"}
	albumID, err := store.CreateAlbum(ctx, album)
	if err != nil {
		t.Fatalf("CreateAlbum() failed: %v", err)
	}

	for want := 1; want <= 3; want++ {
		page, err := store.AppendPage(ctx, albumID, nil)
		if err != nil {
			t.Fatalf("AppendPage() failed: %v", err)
		}
		if page.PageNumber != want {
			t.Errorf("page number = %d, want %d", page.PageNumber, want)
		}
	}

	albums, _ := store.ListAlbums(ctx, 0)
	if len(albums) != 1 || albums[0].TotalPages != 3 {
		t.Errorf("totalPages = %+v, want 3", albums)
	}

	if _, err := store.AppendPage(ctx, "missing", nil); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("AppendPage(missing album): got %v, want ErrNotFound", err)
	}
}

func TestPageContentsRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	album := &core.Album{Name: "A", CoverImage: "c"}
	albumID, _ := store.CreateAlbum(ctx, album)

	fontSize := 32.0
	contents := []core.PageContent{{
		Type:     "text",
		Content:  "ciao",
		Position: &core.Position{X: 40, Y: 60},
		Size:     &core.Size{Width: 200, Height: 100},
		FontSize: &fontSize,
	}}
	page, err := store.AppendPage(ctx, albumID, contents)
	if err != nil {
		t.Fatalf("AppendPage() failed: %v", err)
	}

	pages, err := store.ListPages(ctx, albumID)
	if err != nil {
		t.Fatalf("ListPages() failed: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	got := pages[0].Contents
	if len(got) != 1 || got[0].Position == nil || got[0].Position.X != 40 {
		t.Errorf("contents = %+v", got)
	}
	if got[0].FontSize == nil || *got[0].FontSize != 32 {
		t.Errorf("fontSize lost: %+v", got[0].FontSize)
	}

	updated, err := store.UpdatePage(ctx, albumID, page.ID, nil)
	if err != nil {
		t.Fatalf("UpdatePage() failed: %v", err)
	}
	if updated.Contents == nil || len(updated.Contents) != 0 {
		t.Errorf("contents = %+v, want empty slice", updated.Contents)
	}
}

func TestDeleteAlbumCascade(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	album := &core.Album{Name: "A", CoverImage: "c"}
	albumID, _ := store.CreateAlbum(ctx, album)
	store.AppendPage(ctx, albumID, nil)
	store.AppendPage(ctx, albumID, nil)

	if err := store.DeleteAlbum(ctx, albumID); err != nil {
		t.Fatalf("DeleteAlbum() failed: %v", err)
	}

	pages, _ := store.ListPages(ctx, albumID)
	if len(pages) != 0 {
		t.Errorf("got %d pages after delete, want 0", len(pages))
	}
	if err := store.DeleteAlbum(ctx, albumID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteAlbum() twice: got %v, want ErrNotFound", err)
	}
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"diary-server/core"
)

func TestUserLifecycle(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.FindUserByName(ctx, "Ilaria"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("FindUserByName() on empty store: got %v, want ErrNotFound", err)
	}

	user := &core.User{Name: "Ilaria"}
	id, err := store.CreateUser(ctx, user)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	if len(id) != 26 {
		t.Errorf("CreateUser() id length = %d, want 26", len(id))
	}

	found, err := store.FindUserByName(ctx, "Ilaria")
	if err != nil {
		t.Fatalf("FindUserByName() failed: %v", err)
	}
	if found.ID != id {
		t.Errorf("found.ID = %q, want %q", found.ID, id)
	}
	if !found.LastLogin.IsZero() {
		t.Error("new user already has a lastLogin")
	}

	if err := store.TouchLastLogin(ctx, id); err != nil {
		t.Fatalf("TouchLastLogin() failed: %v", err)
	}
	found, _ = store.FindUserByName(ctx, "Ilaria")
	if found.LastLogin.IsZero() {
		t.Error("lastLogin not set after touch")
	}

	if err := store.TouchLastLogin(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("TouchLastLogin(missing): got %v, want ErrNotFound", err)
	}
}

func TestEntries_NewestFirstWithLimit(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		entry := &core.Entry{
			Author: "Lorenzo",
			Text:   "entry",
			Date:   base.AddDate(0, 0, i),
		}
		if _, err := store.CreateEntry(ctx, entry); err != nil {
			t.Fatalf("CreateEntry() failed: %v", err)
		}
	}

	entries, err := store.ListEntries(ctx, 0)
	if err != nil {
		t.Fatalf("ListEntries() failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Date.After(entries[i-1].Date) {
			t.Errorf("entries not newest first at index %d", i)
		}
	}

	limited, _ := store.ListEntries(ctx, 2)
	if len(limited) != 2 {
		t.Errorf("got %d entries with limit 2, want 2", len(limited))
	}
}

func TestEntries_ByDate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	day := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	morning := &core.Entry{Author: "Ilaria", Text: "morning", Date: day.Add(8 * time.Hour)}
	evening := &core.Entry{Author: "Ilaria", Text: "evening", Date: day.Add(21 * time.Hour)}
	other := &core.Entry{Author: "Ilaria", Text: "other day", Date: day.AddDate(0, 0, 1)}
	for _, e := range []*core.Entry{evening, morning, other} {
		if _, err := store.CreateEntry(ctx, e); err != nil {
			t.Fatalf("CreateEntry() failed: %v", err)
		}
	}

	entries, err := store.ListEntriesByDate(ctx, day)
	if err != nil {
		t.Fatalf("ListEntriesByDate() failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Text != "morning" || entries[1].Text != "evening" {
		t.Errorf("day entries not oldest first: %q, %q", entries[0].Text, entries[1].Text)
	}
}

func TestTodoLifecycle(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	todo := &core.Todo{Author: "Lorenzo", Text: "buy milk", Completed: true}
	id, err := store.CreateTodo(ctx, todo)
	if err != nil {
		t.Fatalf("CreateTodo() failed: %v", err)
	}
	if todo.Completed {
		t.Error("new todo started completed")
	}

	toggled, err := store.ToggleTodo(ctx, id)
	if err != nil {
		t.Fatalf("ToggleTodo() failed: %v", err)
	}
	if !toggled.Completed {
		t.Error("toggle did not complete the todo")
	}
	toggled, _ = store.ToggleTodo(ctx, id)
	if toggled.Completed {
		t.Error("second toggle did not reopen the todo")
	}

	if _, err := store.ToggleTodo(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("ToggleTodo(missing): got %v, want ErrNotFound", err)
	}

	if err := store.DeleteTodo(ctx, id); err != nil {
		t.Fatalf("DeleteTodo() failed: %v", err)
	}
	if err := store.DeleteTodo(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteTodo() twice: got %v, want ErrNotFound", err)
	}

	todos, _ := store.ListTodos(ctx, 0)
	if len(todos) != 0 {
		t.Errorf("got %d todos after delete, want 0", len(todos))
	}
}

func TestAlbumPages(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	album := &core.Album{Name: "Trip", CoverImage: "https://e/c.jpg"}
	albumID, err := store.CreateAlbum(ctx, album)
	if err != nil {
		t.Fatalf("CreateAlbum() failed: %v", err)
	}
	if album.TotalPages != 0 {
		t.Errorf("new album totalPages = %d, want 0", album.TotalPages)
	}

	first, err := store.AppendPage(ctx, albumID, nil)
	if err != nil {
		t.Fatalf("AppendPage() failed: %v", err)
	}
	if first.PageNumber != 1 {
		t.Errorf("first page number = %d, want 1", first.PageNumber)
	}
	if first.Contents == nil {
		t.Error("nil contents not normalized to empty slice")
	}

	second, err := store.AppendPage(ctx, albumID, []core.PageContent{{Type: "text", Content: "hi"}})
	if err != nil {
		t.Fatalf("AppendPage() failed: %v", err)
	}
	if second.PageNumber != 2 {
		t.Errorf("second page number = %d, want 2", second.PageNumber)
	}

	albums, _ := store.ListAlbums(ctx, 0)
	if len(albums) != 1 || albums[0].TotalPages != 2 {
		t.Errorf("album totalPages = %d, want 2", albums[0].TotalPages)
	}

	pages, err := store.ListPages(ctx, albumID)
	if err != nil {
		t.Fatalf("ListPages() failed: %v", err)
	}
	if len(pages) != 2 || pages[0].PageNumber != 1 || pages[1].PageNumber != 2 {
		t.Errorf("pages out of order: %+v", pages)
	}

	if _, err := store.AppendPage(ctx, "missing", nil); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("AppendPage(missing album): got %v, want ErrNotFound", err)
	}
}

func TestUpdatePage(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	album := &core.Album{Name: "Trip", CoverImage: "c"}
	albumID, _ := store.CreateAlbum(ctx, album)
	page, _ := store.AppendPage(ctx, albumID, nil)

	contents := []core.PageContent{{Type: "sticker", Content: "https://e/s.gif"}}
	updated, err := store.UpdatePage(ctx, albumID, page.ID, contents)
	if err != nil {
		t.Fatalf("UpdatePage() failed: %v", err)
	}
	if len(updated.Contents) != 1 || updated.Contents[0].Type != "sticker" {
		t.Errorf("contents not replaced: %+v", updated.Contents)
	}

	// A page id must belong to the album it is addressed under.
	otherAlbum := &core.Album{Name: "Other", CoverImage: "c"}
	otherID, _ := store.CreateAlbum(ctx, otherAlbum)
	if _, err := store.UpdatePage(ctx, otherID, page.ID, contents); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdatePage() across albums: got %v, want ErrNotFound", err)
	}
}

func TestDeleteAlbum_CascadesToPages(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	album := &core.Album{Name: "Trip", CoverImage: "c"}
	albumID, _ := store.CreateAlbum(ctx, album)
	store.AppendPage(ctx, albumID, nil)
	store.AppendPage(ctx, albumID, nil)

	keepAlbum := &core.Album{Name: "Keep", CoverImage: "c"}
	keepID, _ := store.CreateAlbum(ctx, keepAlbum)
	store.AppendPage(ctx, keepID, nil)

	if err := store.DeleteAlbum(ctx, albumID); err != nil {
		t.Fatalf("DeleteAlbum() failed: %v", err)
	}
	if err := store.DeleteAlbum(ctx, albumID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteAlbum() twice: got %v, want ErrNotFound", err)
	}

	orphans, _ := store.ListPages(ctx, albumID)
	if len(orphans) != 0 {
		t.Errorf("got %d orphan pages, want 0", len(orphans))
	}
	kept, _ := store.ListPages(ctx, keepID)
	if len(kept) != 1 {
		t.Errorf("other album lost pages: got %d, want 1", len(kept))
	}
}

package editor

import (
	"context"
	"strings"
	"sync"
	"time"

	"diary-server/core"

	"github.com/sirupsen/logrus"
)

// Search keystrokes are coalesced for this long before hitting the
// catalog.
const searchDebounce = 500 * time.Millisecond

// Delete-zone geometry: a 60x60 target centered horizontally, sitting
// 40 points above the bottom edge.
const (
	deleteZoneSide         = 60.0
	deleteZoneBottomMargin = 40.0
)

type (
	// PageService loads and persists album pages.
	PageService interface {
		LoadPages(ctx context.Context, albumID string) ([]core.Page, error)
		CreatePage(ctx context.Context, albumID string, contents []core.PageContent) (*core.Page, error)
		UpdatePage(ctx context.Context, albumID, pageID string, contents []core.PageContent) (*core.Page, error)
	}

	// TrackResult is one row in the track picker.
	TrackResult struct {
		ID         string
		Name       string
		Artist     string
		Album      string
		ImageURL   string
		PreviewURL string
	}

	// StickerResult is one row in the sticker picker.
	StickerResult struct {
		ID       string
		Title    string
		URL      string
		SmallURL string
	}

	// TrackCatalog backs the track picker.
	TrackCatalog interface {
		SearchTracks(ctx context.Context, query string, limit int) ([]TrackResult, error)
	}

	// StickerCatalog backs the sticker picker.
	StickerCatalog interface {
		SearchStickers(ctx context.Context, query string, limit int) ([]StickerResult, error)
		TrendingStickers(ctx context.Context, limit int) ([]StickerResult, error)
		Categories(ctx context.Context) ([]string, error)
	}

	// MediaPicker picks an image from the device. An empty URI with a
	// nil error means the user cancelled.
	MediaPicker interface {
		PickImage(ctx context.Context) (string, error)
	}

	// Prompter asks the user to confirm a destructive action.
	Prompter interface {
		ConfirmDelete(ctx context.Context) bool
	}

	// Notifier surfaces outcome messages to the user.
	Notifier interface {
		Success(msg string)
		Error(msg string)
	}

	// Opener launches external URLs, e.g. a music app deep link.
	Opener interface {
		OpenURL(url string) error
	}
)

// SessionConfig bundles a session's collaborators. Pages is required;
// the rest may be nil, which disables the corresponding feature.
type SessionConfig struct {
	Pages    PageService
	Tracks   TrackCatalog
	Stickers StickerCatalog
	Picker   MediaPicker
	Prompter Prompter
	Notifier Notifier
	Opener   Opener

	// Dispatch marshals async completions (debounced searches, page
	// loads) back onto the owner's loop. Defaults to immediate
	// invocation.
	Dispatch func(func())
}

// Session is the state of one open album in the page editor: the page
// list, the live element set of the current page, edit-mode and picker
// state. All mutation goes through its methods; edits stay local until
// SavePage.
type Session struct {
	mu sync.Mutex

	pages    PageService
	tracks   TrackCatalog
	stickers StickerCatalog
	picker   MediaPicker
	prompter Prompter
	notifier Notifier
	opener   Opener
	dispatch func(func())

	albumID   string
	pageList  []core.Page
	pageIndex int
	loading   bool
	loadGen   uint64

	canvas     Size
	deleteZone Rect

	elements    []Element
	controllers map[string]*GestureController

	editMode   bool
	selectedID string
	draggingID string
	saving     bool

	// Pending text insertion, between AddText and Confirm/CancelText.
	textPromptOpen bool
	textDrop       Point

	// Track/sticker picker state.
	pickerKind    Kind
	pickerDrop    Point
	pickerQuery   string
	trackResults  []TrackResult
	stickerRows   []StickerResult
	categories    []string
	searchTimer   *time.Timer
	searchGen     uint64
	searchPending bool
}

func NewSession(cfg SessionConfig) *Session {
	dispatch := cfg.Dispatch
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &Session{
		pages:       cfg.Pages,
		tracks:      cfg.Tracks,
		stickers:    cfg.Stickers,
		picker:      cfg.Picker,
		prompter:    cfg.Prompter,
		notifier:    cfg.Notifier,
		opener:      cfg.Opener,
		dispatch:    dispatch,
		controllers: map[string]*GestureController{},
	}
}

// SetCanvasSize records the canvas dimensions and re-derives the
// delete-zone rectangle from them.
func (s *Session) SetCanvasSize(size Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas = size
	s.deleteZone = Rect{
		X:      (size.Width - deleteZoneSide) / 2,
		Y:      size.Height - deleteZoneSide - deleteZoneBottomMargin,
		Width:  deleteZoneSide,
		Height: deleteZoneSide,
	}
	for _, c := range s.controllers {
		c.SetCanvasSize(size)
	}
}

// LoadPages fetches the album's full page list in one round trip. An
// album with no pages gets a first empty page created on the spot. A
// stale load (superseded by a newer LoadPages call) is discarded.
func (s *Session) LoadPages(ctx context.Context, albumID string) {
	s.mu.Lock()
	s.albumID = albumID
	s.loading = true
	s.loadGen++
	gen := s.loadGen
	s.mu.Unlock()

	pages, err := s.pages.LoadPages(ctx, albumID)
	if err == nil && len(pages) == 0 {
		var first *core.Page
		first, err = s.pages.CreatePage(ctx, albumID, []core.PageContent{})
		if err == nil {
			pages = []core.Page{*first}
		}
	}

	s.dispatch(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.loadGen {
			return
		}
		s.loading = false
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "albumId": albumID}).Error("Failed to load pages")
			s.notifyError("Could not load the album pages")
			return
		}
		s.pageList = pages
		s.pageIndex = 0
		s.applyPageLocked()
	})
}

// applyPageLocked re-derives the element set from the current page.
func (s *Session) applyPageLocked() {
	var contents []core.PageContent
	if s.pageIndex >= 0 && s.pageIndex < len(s.pageList) {
		contents = s.pageList[s.pageIndex].Contents
	}
	elements, err := FromWire(contents)
	if err != nil {
		logrus.WithFields(logrus.Fields{"error": err, "page": s.pageIndex}).Error("Failed to decode page contents")
		s.notifyError("This page contains unreadable content")
		elements = nil
	}
	s.elements = elements
	s.selectedID = ""
	s.draggingID = ""
	s.rebuildControllersLocked()
}

func (s *Session) rebuildControllersLocked() {
	s.controllers = make(map[string]*GestureController, len(s.elements))
	for _, el := range s.elements {
		c := NewGestureController(el, s.canvas, s)
		c.SetEditMode(s.editMode)
		c.SetSelected(el.ID == s.selectedID)
		s.controllers[el.ID] = c
	}
}

// Pages returns a copy of the loaded page list.
func (s *Session) Pages() []core.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages := make([]core.Page, len(s.pageList))
	copy(pages, s.pageList)
	return pages
}

// PageIndex returns the current page position.
func (s *Session) PageIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageIndex
}

// Elements returns a copy of the current page's live elements.
func (s *Session) Elements() []Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	elements := make([]Element, len(s.elements))
	copy(elements, s.elements)
	return elements
}

// Controller returns the gesture controller for an element, or nil.
func (s *Session) Controller(id string) *GestureController {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controllers[id]
}

func (s *Session) EditMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editMode
}

func (s *Session) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// DeleteZone returns the drop target rectangle and whether it is
// active (an element drag is in flight).
func (s *Session) DeleteZone() (Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteZone, s.draggingID != ""
}

// GoToPage switches the visible page. Navigation works on the already
// loaded list; it never refetches. Blocked in edit mode so unsaved
// edits cannot be dropped silently.
func (s *Session) GoToPage(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editMode || index < 0 || index >= len(s.pageList) || index == s.pageIndex {
		return
	}
	s.pageIndex = index
	s.applyPageLocked()
}

func (s *Session) NextPage() { s.GoToPage(s.PageIndex() + 1) }
func (s *Session) PrevPage() { s.GoToPage(s.PageIndex() - 1) }

// EnterEditMode enables element manipulation on the current page.
func (s *Session) EnterEditMode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setEditModeLocked(true)
}

// ExitEditMode leaves edit mode. Uncommitted element edits stay on the
// in-memory list; only a reload re-derives the page from the store.
func (s *Session) ExitEditMode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editMode {
		return
	}
	s.setEditModeLocked(false)
	s.closePickerLocked()
	s.textPromptOpen = false
}

func (s *Session) setEditModeLocked(on bool) {
	s.editMode = on
	s.selectedID = ""
	for _, c := range s.controllers {
		c.SetEditMode(on)
		c.SetSelected(false)
	}
}

// SelectElement toggles selection: selecting the selected element
// clears the selection.
func (s *Session) SelectElement(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editMode {
		return
	}
	if s.selectedID == id {
		s.setSelectedLocked("")
		return
	}
	s.setSelectedLocked(id)
}

func (s *Session) setSelectedLocked(id string) {
	s.selectedID = id
	for _, c := range s.controllers {
		c.SetSelected(c.ElementID() == id)
	}
}

// AddText opens the text prompt for an element dropped at the given
// canvas position.
func (s *Session) AddText(drop Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editMode {
		return
	}
	s.textPromptOpen = true
	s.textDrop = drop
}

// TextPromptOpen reports whether a text insertion is awaiting input.
func (s *Session) TextPromptOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textPromptOpen
}

// ConfirmText inserts the pending text element. Whitespace-only input
// is rejected and keeps the prompt open.
func (s *Session) ConfirmText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.textPromptOpen {
		return
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		s.notifyError("Text cannot be empty")
		return
	}
	s.textPromptOpen = false
	el := Instantiate(KindText, s.textDrop, len(s.elements))
	el.Content = trimmed
	s.insertElementLocked(el)
}

// CancelText abandons the pending text insertion.
func (s *Session) CancelText() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.textPromptOpen = false
}

// AddImage runs the media picker and inserts the chosen image at the
// drop position. Cancelling the picker inserts nothing.
func (s *Session) AddImage(ctx context.Context, drop Point) {
	s.mu.Lock()
	if !s.editMode || s.picker == nil {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	uri, err := s.picker.PickImage(ctx)
	if err != nil {
		logrus.WithField("error", err).Error("Image pick failed")
		s.notifyError("Could not pick an image")
		return
	}
	if uri == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	el := Instantiate(KindImage, drop, len(s.elements))
	el.Content = uri
	s.insertElementLocked(el)
}

// AddTrack opens the track picker for an element dropped at the given
// position.
func (s *Session) AddTrack(drop Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editMode || s.tracks == nil {
		return
	}
	s.openPickerLocked(KindTrack, drop)
}

// AddSticker opens the sticker picker, preloading trending stickers
// and the browse categories.
func (s *Session) AddSticker(ctx context.Context, drop Point) {
	s.mu.Lock()
	if !s.editMode || s.stickers == nil {
		s.mu.Unlock()
		return
	}
	s.openPickerLocked(KindSticker, drop)
	gen := s.searchGen
	s.mu.Unlock()

	rows, err := s.stickers.TrendingStickers(ctx, 20)
	categories, catErr := s.stickers.Categories(ctx)

	s.dispatch(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.pickerKind != KindSticker || gen != s.searchGen {
			return
		}
		if err != nil {
			logrus.WithField("error", err).Error("Failed to load trending stickers")
			s.notifyError("Could not load stickers")
		} else {
			s.stickerRows = rows
		}
		if catErr == nil {
			s.categories = categories
		}
	})
}

func (s *Session) openPickerLocked(kind Kind, drop Point) {
	s.closePickerLocked()
	s.pickerKind = kind
	s.pickerDrop = drop
}

func (s *Session) closePickerLocked() {
	if s.searchTimer != nil {
		s.searchTimer.Stop()
		s.searchTimer = nil
	}
	s.searchGen++
	s.searchPending = false
	s.pickerKind = ""
	s.pickerQuery = ""
	s.trackResults = nil
	s.stickerRows = nil
	s.categories = nil
}

// PickerKind reports which picker is open, if any.
func (s *Session) PickerKind() Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pickerKind
}

// TrackResults returns the current track picker rows.
func (s *Session) TrackResults() []TrackResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]TrackResult, len(s.trackResults))
	copy(rows, s.trackResults)
	return rows
}

// StickerResults returns the current sticker picker rows.
func (s *Session) StickerResults() []StickerResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]StickerResult, len(s.stickerRows))
	copy(rows, s.stickerRows)
	return rows
}

// StickerCategories returns the preloaded browse categories.
func (s *Session) StickerCategories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	categories := make([]string, len(s.categories))
	copy(categories, s.categories)
	return categories
}

// SetSearchQuery updates the open picker's query. The catalog call is
// debounced; only the latest query's results are kept. Clearing the
// query in the sticker picker falls back to trending.
func (s *Session) SetSearchQuery(ctx context.Context, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pickerKind == "" {
		return
	}
	s.pickerQuery = query
	s.searchGen++
	gen := s.searchGen

	if s.searchTimer != nil {
		s.searchTimer.Stop()
	}
	s.searchPending = true
	s.searchTimer = time.AfterFunc(searchDebounce, func() {
		s.runSearch(ctx, gen)
	})
}

// SearchPending reports whether a debounced search is scheduled or in
// flight.
func (s *Session) SearchPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchPending
}

func (s *Session) runSearch(ctx context.Context, gen uint64) {
	s.mu.Lock()
	if gen != s.searchGen {
		s.mu.Unlock()
		return
	}
	kind := s.pickerKind
	query := strings.TrimSpace(s.pickerQuery)
	s.mu.Unlock()

	var (
		trackRows   []TrackResult
		stickerRows []StickerResult
		err         error
	)
	switch kind {
	case KindTrack:
		if query == "" {
			trackRows = nil
		} else {
			trackRows, err = s.tracks.SearchTracks(ctx, query, 20)
		}
	case KindSticker:
		if query == "" {
			stickerRows, err = s.stickers.TrendingStickers(ctx, 20)
		} else {
			stickerRows, err = s.stickers.SearchStickers(ctx, query, 20)
		}
	default:
		return
	}

	s.dispatch(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.searchGen || s.pickerKind != kind {
			return
		}
		s.searchPending = false
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "query": query}).Error("Catalog search failed")
			s.notifyError("Search failed")
			return
		}
		switch kind {
		case KindTrack:
			s.trackResults = trackRows
		case KindSticker:
			s.stickerRows = stickerRows
		}
	})
}

// ConfirmTrack inserts a track card for the picked result and closes
// the picker.
func (s *Session) ConfirmTrack(track TrackResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pickerKind != KindTrack {
		return
	}
	drop := s.pickerDrop
	s.closePickerLocked()

	el := Instantiate(KindTrack, drop, len(s.elements))
	el.Content = track.Name
	el.Track = &core.TrackData{
		TrackID:    track.ID,
		TrackName:  track.Name,
		ArtistName: track.Artist,
		AlbumName:  track.Album,
		ImageURL:   track.ImageURL,
		PreviewURL: track.PreviewURL,
	}
	s.insertElementLocked(el)
}

// ConfirmSticker inserts a sticker for the picked result and closes
// the picker.
func (s *Session) ConfirmSticker(sticker StickerResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pickerKind != KindSticker {
		return
	}
	drop := s.pickerDrop
	s.closePickerLocked()

	el := Instantiate(KindSticker, drop, len(s.elements))
	el.Content = sticker.URL
	el.Sticker = &core.StickerData{
		GiphyID:     sticker.ID,
		Title:       sticker.Title,
		OriginalURL: sticker.URL,
		SmallURL:    sticker.SmallURL,
	}
	s.insertElementLocked(el)
}

// CancelPicker closes the open picker without inserting anything.
func (s *Session) CancelPicker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closePickerLocked()
}

func (s *Session) insertElementLocked(el Element) {
	s.elements = append(s.elements, el)
	c := NewGestureController(el, s.canvas, s)
	c.SetEditMode(s.editMode)
	s.controllers[el.ID] = c
}

// UpdateElement merges a partial geometry update into the element with
// the given id. Unknown ids are a no-op.
func (s *Session) UpdateElement(id string, update ElementUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateElementLocked(id, update)
}

func (s *Session) updateElementLocked(id string, update ElementUpdate) {
	for i := range s.elements {
		if s.elements[i].ID != id {
			continue
		}
		if update.Position != nil {
			s.elements[i].Position = *update.Position
		}
		if update.Size != nil {
			s.elements[i].Size = *update.Size
		}
		if update.FontSize != nil {
			s.elements[i].FontSize = *update.FontSize
		}
		if c := s.controllers[id]; c != nil {
			c.Sync(s.elements[i])
		}
		return
	}
}

// DeleteElement removes the element with the given id; every other
// element keeps its state. Unknown ids are a no-op.
func (s *Session) DeleteElement(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteElementLocked(id)
}

func (s *Session) deleteElementLocked(id string) {
	for i := range s.elements {
		if s.elements[i].ID != id {
			continue
		}
		s.elements = append(s.elements[:i], s.elements[i+1:]...)
		delete(s.controllers, id)
		if s.selectedID == id {
			s.selectedID = ""
		}
		return
	}
}

// SavePage persists the current element set. On success the page is
// updated in place and edit mode ends; when a previously empty last
// page gains content, a fresh empty page is appended so there is
// always room to keep writing. On failure edit mode stays on so no
// edits are lost.
func (s *Session) SavePage(ctx context.Context) {
	s.mu.Lock()
	if s.saving || s.pageIndex < 0 || s.pageIndex >= len(s.pageList) {
		s.mu.Unlock()
		return
	}
	s.saving = true
	page := s.pageList[s.pageIndex]
	wasEmpty := len(page.Contents) == 0
	isLast := s.pageIndex == len(s.pageList)-1
	contents := ToWire(s.elements)
	albumID := s.albumID
	s.mu.Unlock()

	updated, err := s.pages.UpdatePage(ctx, albumID, page.ID, contents)

	var appended *core.Page
	if err == nil && wasEmpty && len(contents) > 0 && isLast {
		appended, err = s.pages.CreatePage(ctx, albumID, []core.PageContent{})
	}

	s.dispatch(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.saving = false
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "pageId": page.ID}).Error("Failed to save page")
			s.notifyError("Could not save the page")
			return
		}
		s.pageList[s.pageIndex] = *updated
		if appended != nil {
			s.pageList = append(s.pageList, *appended)
		}
		s.setEditModeLocked(false)
		s.closePickerLocked()
		s.textPromptOpen = false
		if s.notifier != nil {
			s.notifier.Success("Page saved")
		}
	})
}

// Saving reports whether a save round trip is in flight.
func (s *Session) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

func (s *Session) notifyError(msg string) {
	if s.notifier != nil {
		s.notifier.Error(msg)
	}
}

// GestureDelegate implementation. The session owns selection, the
// delete zone and the committed element state; controllers report into
// it.

func (s *Session) OnSelect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.editMode || s.selectedID == id {
		return
	}
	s.setSelectedLocked(id)
}

func (s *Session) OnDragStart(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draggingID = id
}

func (s *Session) OnDragEnd(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draggingID == id {
		s.draggingID = ""
	}
}

// OnDragToDelete runs the delete-zone hit test against the element's
// center point. A hit asks for confirmation; declining keeps the
// element where it was dropped.
func (s *Session) OnDragToDelete(id string, position Point, size Size) {
	s.mu.Lock()
	zone := s.deleteZone
	s.mu.Unlock()

	if !zone.Contains(position.Center(size)) {
		return
	}
	if s.prompter == nil || !s.prompter.ConfirmDelete(context.Background()) {
		return
	}
	s.DeleteElement(id)
}

func (s *Session) OnUpdate(id string, update ElementUpdate) {
	s.UpdateElement(id, update)
}

// OnOpenTrack deep-links into the music app, falling back to the web
// player when the app is not installed.
func (s *Session) OnOpenTrack(trackID string) {
	if s.opener == nil || trackID == "" {
		return
	}
	if err := s.opener.OpenURL("spotify:track:" + trackID); err != nil {
		if webErr := s.opener.OpenURL("https://open.spotify.com/track/" + trackID); webErr != nil {
			logrus.WithFields(logrus.Fields{"error": webErr, "trackId": trackID}).Warn("Could not open track")
		}
	}
}

// Package client is a small HTTP client for the diary server's REST
// API. The editor package talks to the server exclusively through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"diary-server/core"
	"diary-server/editor"
)

// Client talks to one diary server. Methods are safe for concurrent
// use once the login token is set.
type Client struct {
	base       string
	token      string
	httpClient *http.Client
}

func New(base string) *Client {
	return &Client{
		base:       base,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs the bearer token returned by Login.
func (c *Client) SetToken(token string) {
	c.token = token
}

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &apiError{Status: resp.StatusCode, Message: body.Error}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type (
	LoginUser struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
	}

	LoginResponse struct {
		Success bool      `json:"success"`
		Token   string    `json:"token"`
		User    LoginUser `json:"user"`
	}
)

// Login authenticates by author name and stores the returned token on
// the client.
func (c *Client) Login(ctx context.Context, name string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"name": name}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Token != "" {
		c.token = resp.Token
	}
	return &resp, nil
}

// ListEntries returns the newest diary entries.
func (c *Client) ListEntries(ctx context.Context, limit int) ([]core.Entry, error) {
	path := "/api/entries"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var entries []core.Entry
	if err := c.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListEntriesByDate returns the entries written on one day.
func (c *Client) ListEntriesByDate(ctx context.Context, day string) ([]core.Entry, error) {
	var entries []core.Entry
	err := c.do(ctx, http.MethodGet, "/api/entries/date/"+url.PathEscape(day), nil, &entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateEntry writes a new diary entry.
func (c *Client) CreateEntry(ctx context.Context, entry *core.Entry) (*core.Entry, error) {
	var created core.Entry
	if err := c.do(ctx, http.MethodPost, "/api/entries", entry, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListTodos returns the shared todo list.
func (c *Client) ListTodos(ctx context.Context) ([]core.Todo, error) {
	var todos []core.Todo
	if err := c.do(ctx, http.MethodGet, "/api/todos", nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// CreateTodo adds a todo item.
func (c *Client) CreateTodo(ctx context.Context, text, author string) (*core.Todo, error) {
	var created core.Todo
	body := map[string]string{"text": text, "author": author}
	if err := c.do(ctx, http.MethodPost, "/api/todos", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ToggleTodo flips a todo's completion state.
func (c *Client) ToggleTodo(ctx context.Context, id string) (*core.Todo, error) {
	var updated core.Todo
	err := c.do(ctx, http.MethodPatch, "/api/todos/"+url.PathEscape(id)+"/toggle", nil, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTodo removes a todo item.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/todos/"+url.PathEscape(id), nil, nil)
}

// ListAlbums returns the newest albums.
func (c *Client) ListAlbums(ctx context.Context) ([]core.Album, error) {
	var albums []core.Album
	if err := c.do(ctx, http.MethodGet, "/api/albums", nil, &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

// CreateAlbum creates an empty album.
func (c *Client) CreateAlbum(ctx context.Context, name, coverImage string) (*core.Album, error) {
	var created core.Album
	body := map[string]string{"name": name, "coverImage": coverImage}
	if err := c.do(ctx, http.MethodPost, "/api/albums", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteAlbum removes an album and its pages.
func (c *Client) DeleteAlbum(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/albums/"+url.PathEscape(id), nil, nil)
}

// LoadPages returns an album's pages ordered by page number.
func (c *Client) LoadPages(ctx context.Context, albumID string) ([]core.Page, error) {
	var pages []core.Page
	err := c.do(ctx, http.MethodGet, "/api/albums/"+url.PathEscape(albumID)+"/pages", nil, &pages)
	if err != nil {
		return nil, err
	}
	return pages, nil
}

type pageRequest struct {
	Contents []core.PageContent `json:"contents"`
}

// CreatePage appends a page to an album.
func (c *Client) CreatePage(ctx context.Context, albumID string, contents []core.PageContent) (*core.Page, error) {
	if contents == nil {
		contents = []core.PageContent{}
	}
	var page core.Page
	err := c.do(ctx, http.MethodPost, "/api/albums/"+url.PathEscape(albumID)+"/pages",
		pageRequest{Contents: contents}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePage replaces a page's contents.
func (c *Client) UpdatePage(ctx context.Context, albumID, pageID string, contents []core.PageContent) (*core.Page, error) {
	if contents == nil {
		contents = []core.PageContent{}
	}
	var page core.Page
	err := c.do(ctx, http.MethodPut,
		"/api/albums/"+url.PathEscape(albumID)+"/pages/"+url.PathEscape(pageID),
		pageRequest{Contents: contents}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Wire shapes of the catalog proxy endpoints.
type (
	trackWire struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Artists []struct {
			Name string `json:"name"`
		} `json:"artists"`
		Album struct {
			Name   string `json:"name"`
			Images []struct {
				URL string `json:"url"`
			} `json:"images"`
		} `json:"album"`
		PreviewURL string `json:"preview_url"`
	}

	trackSearchWire struct {
		Tracks struct {
			Items []trackWire `json:"items"`
		} `json:"tracks"`
	}

	stickerWire struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Images struct {
			FixedHeight struct {
				URL string `json:"url"`
			} `json:"fixed_height"`
			FixedHeightSmall struct {
				URL string `json:"url"`
			} `json:"fixed_height_small"`
			Original struct {
				URL string `json:"url"`
			} `json:"original"`
		} `json:"images"`
	}

	stickerSearchWire struct {
		Data []stickerWire `json:"data"`
	}

	categoriesWire struct {
		Categories []struct {
			Name string `json:"name"`
		} `json:"categories"`
	}
)

// SearchTracks queries the track proxy and flattens the result rows
// for the track picker.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]editor.TrackResult, error) {
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var wire trackSearchWire
	if err := c.do(ctx, http.MethodGet, "/api/spotify/search?"+params.Encode(), nil, &wire); err != nil {
		return nil, err
	}

	results := make([]editor.TrackResult, 0, len(wire.Tracks.Items))
	for _, item := range wire.Tracks.Items {
		result := editor.TrackResult{
			ID:         item.ID,
			Name:       item.Name,
			Album:      item.Album.Name,
			PreviewURL: item.PreviewURL,
		}
		if len(item.Artists) > 0 {
			result.Artist = item.Artists[0].Name
		}
		if len(item.Album.Images) > 0 {
			result.ImageURL = item.Album.Images[0].URL
		}
		results = append(results, result)
	}
	return results, nil
}

// SearchStickers queries the sticker proxy.
func (c *Client) SearchStickers(ctx context.Context, query string, limit int) ([]editor.StickerResult, error) {
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return c.stickerRows(ctx, "/api/giphy/search?"+params.Encode())
}

// TrendingStickers lists currently trending stickers.
func (c *Client) TrendingStickers(ctx context.Context, limit int) ([]editor.StickerResult, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/giphy/trending"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return c.stickerRows(ctx, path)
}

func (c *Client) stickerRows(ctx context.Context, path string) ([]editor.StickerResult, error) {
	var wire stickerSearchWire
	if err := c.do(ctx, http.MethodGet, path, nil, &wire); err != nil {
		return nil, err
	}

	results := make([]editor.StickerResult, 0, len(wire.Data))
	for _, item := range wire.Data {
		result := editor.StickerResult{
			ID:       item.ID,
			Title:    item.Title,
			URL:      item.Images.Original.URL,
			SmallURL: item.Images.FixedHeightSmall.URL,
		}
		if result.URL == "" {
			result.URL = item.Images.FixedHeight.URL
		}
		results = append(results, result)
	}
	return results, nil
}

// Categories returns the sticker browse category names.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var wire categoriesWire
	if err := c.do(ctx, http.MethodGet, "/api/giphy/categories", nil, &wire); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(wire.Categories))
	for _, category := range wire.Categories {
		names = append(names, category.Name)
	}
	return names, nil
}

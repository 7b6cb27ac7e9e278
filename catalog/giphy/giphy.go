// Package giphy is a minimal Giphy sticker API client (search and
// trending) for the sticker proxy endpoints.
package giphy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultAPIURL = "https://api.giphy.com/v1"

// ErrNotConfigured is returned when the API key is missing.
var ErrNotConfigured = errors.New("giphy api key not configured")

type (
	Client struct {
		apiKey     string
		httpClient *http.Client
		apiURL     string // overridable in tests
	}

	ImageVariant struct {
		URL    string `json:"url"`
		Width  string `json:"width"`
		Height string `json:"height"`
	}

	Images struct {
		FixedHeight      ImageVariant `json:"fixed_height"`
		FixedHeightSmall ImageVariant `json:"fixed_height_small"`
		Original         ImageVariant `json:"original"`
	}

	Sticker struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Images Images `json:"images"`
	}

	Pagination struct {
		TotalCount int `json:"total_count"`
		Count      int `json:"count"`
		Offset     int `json:"offset"`
	}

	SearchResponse struct {
		Data       []Sticker  `json:"data"`
		Pagination Pagination `json:"pagination"`
	}

	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Emoji string `json:"emoji"`
	}
)

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     defaultAPIURL,
	}
}

// Configured reports whether an API key was provided.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*SearchResponse, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	params.Set("api_key", c.apiKey)
	params.Set("rating", "g")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("giphy request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("giphy request: unexpected status %d", resp.StatusCode)
	}

	var sr SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("giphy response: %w", err)
	}
	return &sr, nil
}

// SearchStickers searches the sticker catalog. Limit is capped at 50.
func (c *Client) SearchStickers(ctx context.Context, query string, limit, offset int) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("q", strings.TrimSpace(query))
	params.Set("limit", strconv.Itoa(capLimit(limit)))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("lang", "it")

	sr, err := c.get(ctx, "/stickers/search", params)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"query": query,
		"found": len(sr.Data),
	}).Debug("Giphy search completed")
	return sr, nil
}

// TrendingStickers lists currently trending stickers.
func (c *Client) TrendingStickers(ctx context.Context, limit, offset int) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(capLimit(limit)))
	params.Set("offset", strconv.Itoa(offset))
	return c.get(ctx, "/stickers/trending", params)
}

// Categories returns the fixed set of browse categories shown in the
// sticker picker.
func Categories() []Category {
	return []Category{
		{ID: "emotions", Name: "Emotions", Emoji: "😊"},
		{ID: "animals", Name: "Animals", Emoji: "🐶"},
		{ID: "food", Name: "Food", Emoji: "🍕"},
		{ID: "love", Name: "Love", Emoji: "❤️"},
		{ID: "party", Name: "Party", Emoji: "🎉"},
		{ID: "sports", Name: "Sports", Emoji: "⚽"},
		{ID: "weather", Name: "Weather", Emoji: "☀️"},
		{ID: "travel", Name: "Travel", Emoji: "✈️"},
	}
}

func capLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 50 {
		return 50
	}
	return limit
}

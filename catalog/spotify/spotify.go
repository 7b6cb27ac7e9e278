// Package spotify is a minimal Spotify Web API client covering the
// client-credentials flow and track search, which is all the sticker-book
// proxy endpoints need.
package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultAuthURL = "https://accounts.spotify.com/api/token"
	defaultAPIURL  = "https://api.spotify.com/v1"

	// Tokens are renewed this long before their reported expiry.
	expiryBuffer = time.Minute
)

// ErrNotConfigured is returned when the client credentials are missing.
var ErrNotConfigured = errors.New("spotify credentials not configured")

type (
	Client struct {
		clientID     string
		clientSecret string
		httpClient   *http.Client

		// Overridable in tests.
		authURL string
		apiURL  string
		now     func() time.Time

		mu     sync.Mutex
		token  string
		expiry time.Time
	}

	tokenResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}

	Artist struct {
		Name string `json:"name"`
	}

	AlbumImage struct {
		URL    string `json:"url"`
		Height int    `json:"height"`
		Width  int    `json:"width"`
	}

	Album struct {
		Name   string       `json:"name"`
		Images []AlbumImage `json:"images"`
	}

	Track struct {
		ID         string   `json:"id"`
		Name       string   `json:"name"`
		Artists    []Artist `json:"artists"`
		Album      Album    `json:"album"`
		PreviewURL string   `json:"preview_url,omitempty"`
	}

	SearchResponse struct {
		Tracks struct {
			Items []Track `json:"items"`
		} `json:"tracks"`
	}
)

func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		authURL:      defaultAuthURL,
		apiURL:       defaultAPIURL,
		now:          time.Now,
	}
}

// Configured reports whether credentials were provided.
func (c *Client) Configured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

// accessToken returns the cached token, requesting a new one when the
// cache is empty or within the renewal buffer of expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiry) {
		logrus.Debug("Using cached Spotify token")
		return c.token, nil
	}

	if !c.Configured() {
		return "", ErrNotConfigured
	}

	logrus.Debug("Requesting new Spotify token")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL,
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("spotify token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("spotify token request: unexpected status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("spotify token response: %w", err)
	}

	c.token = tr.AccessToken
	c.expiry = c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - expiryBuffer)

	logrus.WithField("expires_in", tr.ExpiresIn).Info("Spotify token renewed")
	return c.token, nil
}

// SearchTracks searches the track catalog. Limit is capped at 50.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{}
	params.Set("q", strings.TrimSpace(query))
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("market", "IT")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spotify search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify search: unexpected status %d", resp.StatusCode)
	}

	var sr SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("spotify search response: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"query": query,
		"found": len(sr.Tracks.Items),
	}).Debug("Spotify search completed")
	return &sr, nil
}

// TokenStatus describes the cached token without exposing it fully.
type TokenStatus struct {
	Configured  bool      `json:"configured"`
	TokenCached bool      `json:"tokenCached"`
	Expiry      time.Time `json:"expiry,omitempty"`
}

// Status reports credential and token-cache state for diagnostics.
func (c *Client) Status() TokenStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return TokenStatus{
		Configured:  c.Configured(),
		TokenCached: c.token != "",
		Expiry:      c.expiry,
	}
}

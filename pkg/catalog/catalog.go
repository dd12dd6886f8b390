// Package catalog implements the HTTP client for the upstream music
// catalog API. Every method performs a single authenticated GET and
// decodes the response into a wire type; the bearer token is always an
// explicit argument so the client never reaches into session state.
// There is no retry or rate limiting: transport failures and unexpected
// statuses are reported to the caller as typed errors.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"Tune-Lens-Go/pkg/metrics"
	"Tune-Lens-Go/pkg/music"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.spotify.com/v1"

// Client issues authenticated requests against the catalog API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient returns a Client using the provided http.Client. Passing nil
// falls back to http.DefaultClient. baseURL is trimmed of trailing slashes
// so tests can point the client at a local server.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// getJSON performs one bearer-authenticated GET and decodes the body into
// dst. Status codes are mapped onto the shared error taxonomy: 401/403
// become music.ErrUnauthorized, 404 becomes music.ErrNotFound and any
// other non-2xx status is reported as a music.UpstreamError.
func (c *Client) getJSON(ctx context.Context, token, endpoint, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("catalog %s: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return &music.UpstreamError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		metrics.UpstreamRequests.WithLabelValues(endpoint, "unauthorized").Inc()
		return fmt.Errorf("catalog %s: %w", endpoint, music.ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		metrics.UpstreamRequests.WithLabelValues(endpoint, "not_found").Inc()
		return fmt.Errorf("catalog %s: %w", endpoint, music.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return &music.UpstreamError{Endpoint: endpoint, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return &music.UpstreamError{Endpoint: endpoint, Err: err}
	}
	metrics.UpstreamRequests.WithLabelValues(endpoint, "ok").Inc()
	return nil
}

// Album fetches a full album including its embedded track listing.
func (c *Client) Album(ctx context.Context, token, id string) (AlbumPayload, error) {
	var p AlbumPayload
	err := c.getJSON(ctx, token, "album", fmt.Sprintf("%s/albums/%s", c.baseURL, id), &p)
	return p, err
}

// Track fetches a single track by ID.
func (c *Client) Track(ctx context.Context, token, id string) (TrackPayload, error) {
	var p TrackPayload
	err := c.getJSON(ctx, token, "track", fmt.Sprintf("%s/tracks/%s", c.baseURL, id), &p)
	return p, err
}

// TrackFeatures fetches the audio feature measurements for a track.
func (c *Client) TrackFeatures(ctx context.Context, token, id string) (FeaturesPayload, error) {
	var p FeaturesPayload
	err := c.getJSON(ctx, token, "audio_features", fmt.Sprintf("%s/audio-features/%s", c.baseURL, id), &p)
	return p, err
}

// Artist fetches a single artist by ID.
func (c *Client) Artist(ctx context.Context, token, id string) (ArtistPayload, error) {
	var p ArtistPayload
	err := c.getJSON(ctx, token, "artist", fmt.Sprintf("%s/artists/%s", c.baseURL, id), &p)
	return p, err
}

// ArtistAlbums fetches the artist's full-length albums.
func (c *Client) ArtistAlbums(ctx context.Context, token, id string) ([]AlbumItem, error) {
	var p albumListing
	err := c.getJSON(ctx, token, "artist_albums",
		fmt.Sprintf("%s/artists/%s/albums?album_type=album", c.baseURL, id), &p)
	return p.Items, err
}

// NewReleases fetches the current new-release albums.
func (c *Client) NewReleases(ctx context.Context, token string) ([]AlbumItem, error) {
	var p newReleasesPayload
	err := c.getJSON(ctx, token, "new_releases", c.baseURL+"/browse/new-releases", &p)
	return p.Albums.Items, err
}

// RecentlyPlayed fetches the user's listening history.
func (c *Client) RecentlyPlayed(ctx context.Context, token string) ([]PlayHistoryItem, error) {
	var p historyPayload
	err := c.getJSON(ctx, token, "recently_played", c.baseURL+"/me/player/recently-played", &p)
	return p.Items, err
}

// SearchArtists queries the catalog for artists matching q.
func (c *Client) SearchArtists(ctx context.Context, token, q string) (ArtistPage, error) {
	var p searchPayload
	err := c.getJSON(ctx, token, "search",
		fmt.Sprintf("%s/search?q=%s&type=artist", c.baseURL, url.QueryEscape(q)), &p)
	return p.Artists, err
}

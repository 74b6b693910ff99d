// Catalog proxy client.
//
// Communicates with the proxy server wrapping ytmusicapi for YouTube Music
// library and playlist operations.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/soundsift/soundsift/internal/models"
	"github.com/soundsift/soundsift/internal/shared"
)

const defaultProxyBaseURL = "http://localhost:8080"

// ProxyClient talks to the catalog proxy. It implements [CatalogSource],
// [SearchService], and the cleanup package's mutation and state-reader
// interfaces.
type ProxyClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewProxyClient creates a proxy client. A non-empty token authorizes every
// request via a static bearer token source; client may be nil.
func NewProxyClient(baseURL, token string, client *http.Client) *ProxyClient {
	if baseURL == "" {
		baseURL = defaultProxyBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = &http.Client{
			Timeout:   client.Timeout,
			Transport: &oauth2.Transport{Source: src, Base: client.Transport},
		}
	}
	return &ProxyClient{baseURL: baseURL, httpClient: client}
}

// Name returns the service name.
func (p *ProxyClient) Name() string { return "YouTube Music" }

// proxyTrack mirrors the proxy's track JSON.
type proxyTrack struct {
	VideoID     string   `json:"videoId"`
	Title       string   `json:"title"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album,omitempty"`
	DurationSec int      `json:"duration_seconds,omitempty"`
	ISRC        string   `json:"isrc,omitempty"`
	Year        int      `json:"year,omitempty"`
	Genre       string   `json:"genre,omitempty"`
	Explicit    bool     `json:"is_explicit,omitempty"`
}

func (t proxyTrack) toModel() models.Track {
	return models.Track{
		Title:    t.Title,
		Artists:  t.Artists,
		Album:    t.Album,
		Duration: t.DurationSec,
		ISRC:     t.ISRC,
		Year:     t.Year,
		Genre:    t.Genre,
		Explicit: t.Explicit,
		Platform: models.PlatformYouTubeMusic,
		NativeID: t.VideoID,
	}
}

type proxyPlaylist struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Tracks []proxyTrack `json:"tracks"`
}

// Library fetches the user's library songs in the proxy's stable order.
func (p *ProxyClient) Library(ctx context.Context) (*models.Library, error) {
	var payload struct {
		Songs []proxyTrack `json:"songs"`
	}
	if err := p.get(ctx, "/api/library/songs", &payload); err != nil {
		return nil, err
	}

	lib := &models.Library{
		Name:     "YouTube Music library",
		Platform: models.PlatformYouTubeMusic,
		Tracks:   make([]models.Track, 0, len(payload.Songs)),
	}
	for _, t := range payload.Songs {
		lib.Tracks = append(lib.Tracks, t.toModel())
	}
	return lib, nil
}

// Playlists fetches the user's playlists with full membership.
func (p *ProxyClient) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var payload struct {
		Playlists []proxyPlaylist `json:"playlists"`
	}
	if err := p.get(ctx, "/api/library/playlists", &payload); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(payload.Playlists))
	for _, pl := range payload.Playlists {
		snapshot := models.Playlist{ID: pl.ID, Name: pl.Title}
		for _, t := range pl.Tracks {
			snapshot.Tracks = append(snapshot.Tracks, t.toModel().ID())
		}
		playlists = append(playlists, snapshot)
	}
	return playlists, nil
}

// Search queries the proxy for candidate tracks matching a probe.
func (p *ProxyClient) Search(ctx context.Context, probe models.Track) ([]models.Track, error) {
	q := url.Values{}
	q.Set("q", probe.Artist()+" "+probe.Title)

	var payload struct {
		Results []proxyTrack `json:"results"`
	}
	if err := p.get(ctx, "/api/search?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(payload.Results))
	for _, t := range payload.Results {
		tracks = append(tracks, t.toModel())
	}
	return tracks, nil
}

// Like sets a track's rating to LIKE.
func (p *ProxyClient) Like(ctx context.Context, track models.TrackID) error {
	return p.rate(ctx, track, "LIKE")
}

// Unlike clears a track's rating (INDIFFERENT, matching ytmusicapi).
func (p *ProxyClient) Unlike(ctx context.Context, track models.TrackID) error {
	return p.rate(ctx, track, "INDIFFERENT")
}

func (p *ProxyClient) rate(ctx context.Context, track models.TrackID, rating string) error {
	body := map[string]string{"track_id": track.NativeID, "rating": rating}
	return p.send(ctx, http.MethodPost, "/api/library/rate", body, nil)
}

// AddToPlaylist appends a track to a playlist.
func (p *ProxyClient) AddToPlaylist(ctx context.Context, track models.TrackID, playlistID string) error {
	body := map[string]string{"track_id": track.NativeID}
	path := fmt.Sprintf("/api/playlists/%s/items", url.PathEscape(playlistID))
	return p.send(ctx, http.MethodPost, path, body, nil)
}

// RemoveFromPlaylist removes a track from a playlist.
func (p *ProxyClient) RemoveFromPlaylist(ctx context.Context, track models.TrackID, playlistID string) error {
	path := fmt.Sprintf("/api/playlists/%s/items/%s", url.PathEscape(playlistID), url.PathEscape(track.NativeID))
	return p.send(ctx, http.MethodDelete, path, nil, nil)
}

// IsLiked reports whether a track is currently rated LIKE.
func (p *ProxyClient) IsLiked(ctx context.Context, track models.TrackID) (bool, error) {
	var payload struct {
		Liked bool `json:"liked"`
	}
	path := fmt.Sprintf("/api/library/likes/%s", url.PathEscape(track.NativeID))
	if err := p.get(ctx, path, &payload); err != nil {
		return false, err
	}
	return payload.Liked, nil
}

// PlaylistContains reports whether a playlist currently holds a track.
func (p *ProxyClient) PlaylistContains(ctx context.Context, playlistID string, track models.TrackID) (bool, error) {
	var payload struct {
		Present bool `json:"present"`
	}
	path := fmt.Sprintf("/api/playlists/%s/items/%s", url.PathEscape(playlistID), url.PathEscape(track.NativeID))
	if err := p.get(ctx, path, &payload); err != nil {
		return false, err
	}
	return payload.Present, nil
}

func (p *ProxyClient) get(ctx context.Context, path string, out any) error {
	return p.send(ctx, http.MethodGet, path, nil, out)
}

// send performs one HTTP exchange with the proxy, mapping status codes onto
// the shared error taxonomy: 429 is transient, other non-2xx are rejections.
func (p *ProxyClient) send(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s %s", shared.ErrRateLimited, method, path)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", shared.ErrTrackNotFound, method, path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: status %d: %s", shared.ErrRemoteActionFailed, method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

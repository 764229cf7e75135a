// Spotify API implementation of [TrackSource] and [CollectionSource]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/desertthunder/sift/internal/models"
	"github.com/desertthunder/sift/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultRateLimit = 5.0
	maxPageLimit     = 50
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	IsLocal    bool            `json:"is_local"`
	URI        string          `json:"uri"`
}

// SpotifyPlaylistTrack represents a track within a playlist or library context.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents a paginated response of playlist or saved tracks.
type SpotifyPaginatedTracks struct {
	Items    []SpotifyPlaylistTrack `json:"items"`
	Total    int                    `json:"total"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
	Next     *string                `json:"next"`
	Previous *string                `json:"previous"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Owner  owner               `json:"owner"`
	Tracks simplePlaylistTrack `json:"tracks"`
	Images []SpotifyImage      `json:"images"`
	URI    string              `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyDevice represents a playback device from the Connect API.
type SpotifyDevice struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	IsRestricted  bool   `json:"is_restricted"`
	VolumePercent int    `json:"volume_percent"`
}

// SpotifyPlaybackState represents the current playback state.
type SpotifyPlaybackState struct {
	Device     SpotifyDevice `json:"device"`
	IsPlaying  bool          `json:"is_playing"`
	ProgressMS int           `json:"progress_ms"`
	Item       *SpotifyTrack `json:"item"`
}

// SpotifyService implements [TrackSource] and [CollectionSource] for the Spotify API.
// Uses [oauth2] for authentication and a [rate.Limiter] shared across all calls.
type SpotifyService struct {
	config      *oauth2.Config
	token       *oauth2.Token
	httpClient  *http.Client
	limiter     *rate.Limiter
	credentials map[string]string
	baseURL     string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
			"user-library-read",
			"user-library-modify",
			"user-read-playback-state",
			"user-modify-playback-state",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		limiter:     rate.NewLimiter(rate.Limit(defaultRateLimit), 1),
		credentials: credentials,
		baseURL:     spotifyBaseURL,
	}, nil
}

// SetRateLimit replaces the request limiter with one allowing rps requests per second.
func (s *SpotifyService) SetRateLimit(rps float64) {
	if rps <= 0 {
		rps = defaultRateLimit
	}
	s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{AccessToken: accessToken}
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("failed to exchange auth code: %w", err)
		}
		s.token = token
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// OAuthenticate installs a previously obtained [oauth2.Token] on the service.
//
// The [oauth2] client transparently refreshes expired tokens when a refresh token is present.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", shared.ErrMissingCredentials)
	}

	s.token = token
	s.httpClient = s.config.Client(ctx, token)
	return nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the underlying OAuth2 configuration.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// doRequest performs an authenticated, rate-limited HTTP request to the Spotify API.
//
// Non-2xx responses are returned as a [ClassifiedError]; transport failures
// are classified as network errors.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter interrupted: %w", err)
	}

	apiURL := s.baseURL + endpoint

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ClassifyTransport(err), endpoint)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s", Classify(resp.StatusCode, resp.Header, respBody), method, endpoint)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// trackEndpoint returns the listing endpoint for a collection kind.
func trackEndpoint(collection models.Collection, limit, offset int) string {
	if collection.Kind == models.KindLiked || collection.ID == models.LikedSongsID {
		return fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)
	}
	return fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", url.PathEscape(collection.ID), limit, offset)
}

// ListTracks retrieves one page of tracks for the collection.
//
// Both ordinary playlists and the liked-songs library return the same page
// shape. Local-only and unavailable (null) tracks are skipped.
func (s *SpotifyService) ListTracks(ctx context.Context, collection models.Collection, limit, offset int) ([]models.Track, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	var page SpotifyPaginatedTracks
	if err := s.doRequest(ctx, http.MethodGet, trackEndpoint(collection, limit, offset), nil, &page); err != nil {
		return nil, 0, err
	}

	tracks := make([]models.Track, 0, len(page.Items))
	for _, item := range page.Items {
		if item.Track == nil || item.Track.IsLocal || item.Track.ID == "" {
			continue
		}
		tracks = append(tracks, toTrack(*item.Track))
	}

	return tracks, page.Total, nil
}

// likedRemoval is the payload for removing saved tracks (bare identifier list).
type likedRemoval struct {
	IDs []string `json:"ids"`
}

// playlistRemoval is the payload for removing playlist tracks (URI-wrapped entry list).
type playlistRemoval struct {
	Tracks []playlistRemovalEntry `json:"tracks"`
}

type playlistRemovalEntry struct {
	URI string `json:"uri"`
}

// RemoveTrack removes a track from the collection.
//
// The payload shape differs by collection kind; the review engine never sees
// that difference. Spotify treats removal of an already-absent track as a
// no-op, so retries are safe.
func (s *SpotifyService) RemoveTrack(ctx context.Context, collection models.Collection, track models.Track) error {
	if track.ID == "" {
		return fmt.Errorf("%w: track has no identifier", shared.ErrInvalidArgument)
	}

	if collection.Kind == models.KindLiked || collection.ID == models.LikedSongsID {
		return s.doRequest(ctx, http.MethodDelete, "/me/tracks", likedRemoval{IDs: []string{track.ID}}, nil)
	}

	uri := track.URI
	if uri == "" {
		uri = "spotify:track:" + track.ID
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(collection.ID))
	return s.doRequest(ctx, http.MethodDelete, endpoint, playlistRemoval{Tracks: []playlistRemovalEntry{{URI: uri}}}, nil)
}

// UserCollections retrieves the user's playlists, with the liked-songs library first.
func (s *SpotifyService) UserCollections(ctx context.Context) ([]models.Collection, error) {
	liked := models.LikedSongs()
	if _, total, err := s.ListTracks(ctx, liked, 1, 0); err == nil {
		liked.TrackCount = total
	}

	collections := []models.Collection{liked}
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", maxPageLimit, offset)

		var page SpotifyPaginatedPlaylists
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, pl := range page.Items {
			collections = append(collections, models.Collection{
				ID:         pl.ID,
				Name:       pl.Name,
				TrackCount: pl.Tracks.Total,
				Artwork:    toImages(pl.Images),
				Kind:       models.KindOrdinary,
			})
		}

		if page.Next == nil {
			break
		}
		offset += maxPageLimit
	}

	return collections, nil
}

// GetCollection retrieves a specific collection by ID or the liked-songs sentinel.
func (s *SpotifyService) GetCollection(ctx context.Context, collectionID string) (*models.Collection, error) {
	if collectionID == models.LikedSongsID {
		liked := models.LikedSongs()
		_, total, err := s.ListTracks(ctx, liked, 1, 0)
		if err != nil {
			return nil, err
		}
		liked.TrackCount = total
		return &liked, nil
	}

	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(collectionID))

	var pl SpotifySimplePlaylist
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &pl); err != nil {
		return nil, err
	}

	return &models.Collection{
		ID:         pl.ID,
		Name:       pl.Name,
		TrackCount: pl.Tracks.Total,
		Artwork:    toImages(pl.Images),
		Kind:       models.KindOrdinary,
	}, nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Devices retrieves the user's available playback devices.
func (s *SpotifyService) Devices(ctx context.Context) ([]SpotifyDevice, error) {
	var response struct {
		Devices []SpotifyDevice `json:"devices"`
	}

	if err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &response); err != nil {
		return nil, err
	}

	return response.Devices, nil
}

// StartPlayback starts playback of a track on the given device.
func (s *SpotifyService) StartPlayback(ctx context.Context, deviceID, trackURI string) error {
	endpoint := "/me/player/play"
	if deviceID != "" {
		endpoint += "?device_id=" + url.QueryEscape(deviceID)
	}

	payload := struct {
		URIs []string `json:"uris"`
	}{URIs: []string{trackURI}}

	return s.doRequest(ctx, http.MethodPut, endpoint, payload, nil)
}

// PausePlayback pauses playback on the given device.
func (s *SpotifyService) PausePlayback(ctx context.Context, deviceID string) error {
	endpoint := "/me/player/pause"
	if deviceID != "" {
		endpoint += "?device_id=" + url.QueryEscape(deviceID)
	}

	return s.doRequest(ctx, http.MethodPut, endpoint, nil, nil)
}

// PlaybackState retrieves the current playback state, or nil when nothing is playing.
func (s *SpotifyService) PlaybackState(ctx context.Context) (*SpotifyPlaybackState, error) {
	var state SpotifyPlaybackState
	if err := s.doRequest(ctx, http.MethodGet, "/me/player", nil, &state); err != nil {
		return nil, err
	}

	if state.Device.ID == "" && state.Item == nil {
		return nil, nil
	}

	return &state, nil
}

// toTrack converts a Spotify track into the service-neutral model.
func toTrack(st SpotifyTrack) models.Track {
	artists := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		artists = append(artists, a.Name)
	}

	return models.Track{
		ID:         st.ID,
		Name:       st.Name,
		Artists:    artists,
		Album:      st.Album.Name,
		Artwork:    toImages(st.Album.Images),
		DurationMS: st.DurationMS,
		URI:        st.URI,
	}
}

func toImages(images []SpotifyImage) []models.Image {
	if len(images) == 0 {
		return nil
	}

	out := make([]models.Image, 0, len(images))
	for _, img := range images {
		out = append(out, models.Image{URL: img.URL, Width: img.Width, Height: img.Height})
	}
	return out
}

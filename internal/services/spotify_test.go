package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/sift/internal/models"
	"github.com/desertthunder/sift/internal/shared"
	"golang.org/x/oauth2"
)

// newTestService returns an authenticated service pointed at the test server.
func newTestService(t *testing.T, server *httptest.Server) *SpotifyService {
	t.Helper()

	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	srv.token = &oauth2.Token{AccessToken: "test_token"}
	srv.baseURL = server.URL
	srv.httpClient = server.Client()
	srv.SetRateLimit(1000)
	return srv
}

func pageBody(total, offset, limit, collectionSize int) []byte {
	// Remote paging is newest-first: remote position p holds track
	// number collectionSize - p.
	type item struct {
		Track map[string]any `json:"track"`
	}

	items := []item{}
	for p := offset; p < offset+limit && p < total; p++ {
		n := collectionSize - p
		items = append(items, item{Track: map[string]any{
			"id":          fmt.Sprintf("t%d", n),
			"name":        fmt.Sprintf("Track %d", n),
			"uri":         fmt.Sprintf("spotify:track:t%d", n),
			"duration_ms": 200000,
			"artists":     []map[string]any{{"id": "a1", "name": "Artist"}},
			"album":       map[string]any{"id": "al1", "name": "Album"},
		}})
	}

	body, _ := json.Marshal(map[string]any{
		"items":  items,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
	return body
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
				"redirect_uri":  "http://localhost:8080/callback",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv == nil {
				t.Fatal("expected service to be created")
			}
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "s"})
			if err == nil {
				t.Error("expected error for missing client_id")
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "c"})
			if err == nil {
				t.Error("expected error for missing client_secret")
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv, err := NewSpotifyService(map[string]string{
				"client_id":     "c",
				"client_secret": "s",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.config.RedirectURL == "" {
				t.Error("expected a default redirect URI")
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_client_id") {
			t.Error("auth URL should contain client_id")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("With Access Token", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{
				"access_token": "test_access_token",
			})
			if err != nil {
				t.Errorf("expected no error with access token, got %v", err)
			}
			if srv.token == nil || srv.token.AccessToken != "test_access_token" {
				t.Error("expected token to be installed")
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			if err := srv.Authenticate(context.Background(), map[string]string{}); err == nil {
				t.Error("expected error for missing credentials")
			}
		})

		t.Run("Nil OAuth Token", func(t *testing.T) {
			if err := srv.OAuthenticate(context.Background(), nil); err == nil {
				t.Error("expected error for nil token")
			}
		})
	})

	t.Run("Unauthenticated Requests Are Rejected", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "c",
			"client_secret": "s",
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		_, _, err = srv.ListTracks(context.Background(), models.LikedSongs(), 10, 0)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("ListTracks", func(t *testing.T) {
		t.Run("Routes Liked Songs To The Library Endpoint", func(t *testing.T) {
			var gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Write(pageBody(7, 0, 3, 7))
			}))
			defer server.Close()

			srv := newTestService(t, server)
			tracks, total, err := srv.ListTracks(context.Background(), models.LikedSongs(), 3, 0)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if gotPath != "/me/tracks" {
				t.Errorf("expected /me/tracks, got %s", gotPath)
			}
			if total != 7 {
				t.Errorf("expected total 7, got %d", total)
			}
			if len(tracks) != 3 {
				t.Errorf("expected 3 tracks, got %d", len(tracks))
			}
		})

		t.Run("Routes Playlists To The Playlist Endpoint", func(t *testing.T) {
			var gotPath, gotQuery string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotQuery = r.URL.RawQuery
				w.Write(pageBody(7, 4, 3, 7))
			}))
			defer server.Close()

			srv := newTestService(t, server)
			collection := models.Collection{ID: "pl1", Kind: models.KindOrdinary}

			tracks, _, err := srv.ListTracks(context.Background(), collection, 3, 4)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if gotPath != "/playlists/pl1/tracks" {
				t.Errorf("expected playlist endpoint, got %s", gotPath)
			}
			if !strings.Contains(gotQuery, "limit=3") || !strings.Contains(gotQuery, "offset=4") {
				t.Errorf("expected limit/offset in query, got %s", gotQuery)
			}
			if len(tracks) != 3 || tracks[0].ID != "t3" {
				t.Errorf("expected page starting at t3, got %+v", tracks)
			}
		})

		t.Run("Skips Null And Local Tracks", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{
					"items": [
						{"track": null},
						{"track": {"id": "", "name": "ghost"}},
						{"track": {"id": "local1", "name": "Local", "is_local": true}},
						{"track": {"id": "t1", "name": "Real", "artists": [{"name": "A"}], "album": {"name": "Al"}}}
					],
					"total": 4
				}`))
			}))
			defer server.Close()

			srv := newTestService(t, server)
			tracks, _, err := srv.ListTracks(context.Background(), models.LikedSongs(), 10, 0)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(tracks) != 1 || tracks[0].ID != "t1" {
				t.Errorf("expected only the playable track, got %+v", tracks)
			}
		})

		t.Run("Classifies HTTP Failures", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "15")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"status":429,"message":"rate limited"}}`))
			}))
			defer server.Close()

			srv := newTestService(t, server)
			_, _, err := srv.ListTracks(context.Background(), models.LikedSongs(), 10, 0)
			if err == nil {
				t.Fatal("expected error")
			}

			classified, ok := AsClassified(err)
			if !ok {
				t.Fatalf("expected classified error, got %v", err)
			}
			if classified.Kind != KindRateLimit {
				t.Errorf("expected rate_limit, got %s", classified.Kind)
			}
		})
	})

	t.Run("RemoveTrack", func(t *testing.T) {
		t.Run("Liked Songs Use The Bare ID Payload", func(t *testing.T) {
			var gotMethod, gotPath, gotBody string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotPath = r.URL.Path
				body, _ := io.ReadAll(r.Body)
				gotBody = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			srv := newTestService(t, server)
			track := models.Track{ID: "t1", URI: "spotify:track:t1"}

			if err := srv.RemoveTrack(context.Background(), models.LikedSongs(), track); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if gotMethod != http.MethodDelete || gotPath != "/me/tracks" {
				t.Errorf("expected DELETE /me/tracks, got %s %s", gotMethod, gotPath)
			}
			if !strings.Contains(gotBody, `"ids":["t1"]`) {
				t.Errorf("expected bare id list payload, got %s", gotBody)
			}
			if strings.Contains(gotBody, "uri") {
				t.Errorf("liked removal must not use the URI payload, got %s", gotBody)
			}
		})

		t.Run("Playlists Use The URI Payload", func(t *testing.T) {
			var gotPath, gotBody string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				body, _ := io.ReadAll(r.Body)
				gotBody = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			srv := newTestService(t, server)
			collection := models.Collection{ID: "pl1", Kind: models.KindOrdinary}
			track := models.Track{ID: "t1", URI: "spotify:track:t1"}

			if err := srv.RemoveTrack(context.Background(), collection, track); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if gotPath != "/playlists/pl1/tracks" {
				t.Errorf("expected playlist endpoint, got %s", gotPath)
			}
			if !strings.Contains(gotBody, `"tracks":[{"uri":"spotify:track:t1"}]`) {
				t.Errorf("expected URI-wrapped payload, got %s", gotBody)
			}
		})

		t.Run("Synthesizes The URI From The ID", func(t *testing.T) {
			var gotBody string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				gotBody = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			srv := newTestService(t, server)
			collection := models.Collection{ID: "pl1", Kind: models.KindOrdinary}

			if err := srv.RemoveTrack(context.Background(), collection, models.Track{ID: "t9"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(gotBody, "spotify:track:t9") {
				t.Errorf("expected synthesized URI, got %s", gotBody)
			}
		})

		t.Run("Rejects Tracks Without An ID", func(t *testing.T) {
			srv := newTestService(t, httptest.NewServer(http.NotFoundHandler()))
			err := srv.RemoveTrack(context.Background(), models.LikedSongs(), models.Track{})
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("UserCollections", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/me/tracks":
				w.Write(pageBody(42, 0, 1, 42))
			case "/me/playlists":
				w.Write([]byte(`{
					"items": [
						{"id": "pl1", "name": "Road Trip", "tracks": {"total": 30}},
						{"id": "pl2", "name": "Focus", "tracks": {"total": 12}}
					],
					"total": 2,
					"next": null
				}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		srv := newTestService(t, server)
		collections, err := srv.UserCollections(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(collections) != 3 {
			t.Fatalf("expected liked songs + 2 playlists, got %d", len(collections))
		}
		if collections[0].ID != models.LikedSongsID || collections[0].Kind != models.KindLiked {
			t.Errorf("expected liked songs first, got %+v", collections[0])
		}
		if collections[0].TrackCount != 42 {
			t.Errorf("expected liked total from probe, got %d", collections[0].TrackCount)
		}
		if collections[1].ID != "pl1" || collections[1].TrackCount != 30 {
			t.Errorf("unexpected playlist entry: %+v", collections[1])
		}
	})

	t.Run("GetCollection", func(t *testing.T) {
		t.Run("Liked Sentinel", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/me/tracks" {
					t.Errorf("expected probe on /me/tracks, got %s", r.URL.Path)
				}
				w.Write(pageBody(5, 0, 1, 5))
			}))
			defer server.Close()

			srv := newTestService(t, server)
			collection, err := srv.GetCollection(context.Background(), models.LikedSongsID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if collection.Kind != models.KindLiked || collection.TrackCount != 5 {
				t.Errorf("unexpected collection: %+v", collection)
			}
		})

		t.Run("Ordinary Playlist", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"id": "pl1", "name": "Road Trip", "tracks": {"total": 30}}`))
			}))
			defer server.Close()

			srv := newTestService(t, server)
			collection, err := srv.GetCollection(context.Background(), "pl1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if collection.Name != "Road Trip" || collection.TrackCount != 30 {
				t.Errorf("unexpected collection: %+v", collection)
			}
		})
	})

	t.Run("Playback", func(t *testing.T) {
		t.Run("StartPlayback Targets The Device", func(t *testing.T) {
			var gotPath, gotQuery, gotBody string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotQuery = r.URL.RawQuery
				body, _ := io.ReadAll(r.Body)
				gotBody = string(body)
				w.WriteHeader(http.StatusNoContent)
			}))
			defer server.Close()

			srv := newTestService(t, server)
			if err := srv.StartPlayback(context.Background(), "dev1", "spotify:track:t1"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if gotPath != "/me/player/play" || !strings.Contains(gotQuery, "device_id=dev1") {
				t.Errorf("unexpected request: %s?%s", gotPath, gotQuery)
			}
			if !strings.Contains(gotBody, "spotify:track:t1") {
				t.Errorf("expected track URI in payload, got %s", gotBody)
			}
		})

		t.Run("Devices", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"devices": [{"id": "dev1", "name": "Desktop", "is_active": true}]}`))
			}))
			defer server.Close()

			srv := newTestService(t, server)
			devices, err := srv.Devices(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(devices) != 1 || devices[0].ID != "dev1" || !devices[0].IsActive {
				t.Errorf("unexpected devices: %+v", devices)
			}
		})
	})
}

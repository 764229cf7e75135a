// package playback exposes the play/pause/state boundary used for track previews
package playback

import (
	"context"
	"fmt"

	"github.com/desertthunder/sift/internal/models"
	"github.com/desertthunder/sift/internal/services"
	"github.com/desertthunder/sift/internal/shared"
)

// State describes what the adapter is currently doing.
type State struct {
	Playing    bool
	TrackID    string
	DeviceName string
	ProgressMS int
}

// Adapter controls playback of a single track at a time.
//
// The review engine never touches playback; the UI starts and stops preview
// when the current track changes.
type Adapter interface {
	// Play starts playback of the given track, replacing whatever is playing.
	Play(ctx context.Context, track models.Track) error

	// Pause stops playback.
	Pause(ctx context.Context) error

	// State queries the current playback state.
	State(ctx context.Context) (*State, error)
}

// SpotifyAdapter implements [Adapter] on the Spotify Connect API.
//
// Spotify plays through an existing Connect device (desktop app, phone, web
// player), so the adapter discovers a device lazily: the active device wins,
// otherwise the first unrestricted one. The resolved device ID is cached for
// the rest of the session.
type SpotifyAdapter struct {
	service  *services.SpotifyService
	deviceID string
}

// NewSpotifyAdapter creates a playback adapter backed by the given service.
func NewSpotifyAdapter(service *services.SpotifyService) *SpotifyAdapter {
	return &SpotifyAdapter{service: service}
}

// resolveDevice finds and caches a usable playback device.
func (a *SpotifyAdapter) resolveDevice(ctx context.Context) (string, error) {
	if a.deviceID != "" {
		return a.deviceID, nil
	}

	devices, err := a.service.Devices(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list devices: %w", err)
	}

	var fallback string
	for _, device := range devices {
		if device.IsRestricted {
			continue
		}
		if device.IsActive {
			a.deviceID = device.ID
			return a.deviceID, nil
		}
		if fallback == "" {
			fallback = device.ID
		}
	}

	if fallback == "" {
		return "", shared.ErrNoActiveDevice
	}

	a.deviceID = fallback
	return a.deviceID, nil
}

// Play starts playback of the track on the resolved device.
func (a *SpotifyAdapter) Play(ctx context.Context, track models.Track) error {
	deviceID, err := a.resolveDevice(ctx)
	if err != nil {
		return err
	}

	uri := track.URI
	if uri == "" {
		uri = "spotify:track:" + track.ID
	}

	if err := a.service.StartPlayback(ctx, deviceID, uri); err != nil {
		// The cached device may have gone away; re-resolve once.
		a.deviceID = ""
		if deviceID, err = a.resolveDevice(ctx); err != nil {
			return err
		}
		return a.service.StartPlayback(ctx, deviceID, uri)
	}

	return nil
}

// Pause stops playback on the resolved device.
func (a *SpotifyAdapter) Pause(ctx context.Context) error {
	deviceID, err := a.resolveDevice(ctx)
	if err != nil {
		return err
	}

	return a.service.PausePlayback(ctx, deviceID)
}

// State queries the current playback state.
func (a *SpotifyAdapter) State(ctx context.Context) (*State, error) {
	playback, err := a.service.PlaybackState(ctx)
	if err != nil {
		return nil, err
	}
	if playback == nil {
		return &State{}, nil
	}

	state := &State{
		Playing:    playback.IsPlaying,
		DeviceName: playback.Device.Name,
		ProgressMS: playback.ProgressMS,
	}
	if playback.Item != nil {
		state.TrackID = playback.Item.ID
	}

	return state, nil
}

// NopAdapter is an [Adapter] that does nothing, used when preview is disabled.
type NopAdapter struct{}

func (NopAdapter) Play(context.Context, models.Track) error { return nil }
func (NopAdapter) Pause(context.Context) error              { return nil }
func (NopAdapter) State(context.Context) (*State, error)    { return &State{}, nil }

// package services defines interfaces for the remote track source and implements them for Spotify
package services

import (
	"context"

	"github.com/desertthunder/sift/internal/models"
	"golang.org/x/oauth2"
)

// TrackSource defines the remote read and removal API consumed by the review engine.
//
// Both collection kinds are supported: ordinary playlists and the
// liked-songs library addressed via [models.LikedSongsID].
type TrackSource interface {
	// ListTracks retrieves one page of tracks for the collection along with the
	// remote-reported total. Pages are returned in the remote's native order
	// (most recently added first); offset reversal is the caller's concern.
	ListTracks(ctx context.Context, collection models.Collection, limit, offset int) ([]models.Track, int, error)

	// RemoveTrack removes a track from the collection. Removal is idempotent on
	// the remote side; removing an already-absent track is not an error.
	RemoveTrack(ctx context.Context, collection models.Collection, track models.Track) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// CollectionSource lists the collections available for review.
type CollectionSource interface {
	// UserCollections retrieves all collections for the authenticated user,
	// with the liked-songs library first.
	UserCollections(ctx context.Context) ([]models.Collection, error)

	// GetCollection retrieves a specific collection by ID or by the liked-songs sentinel.
	GetCollection(ctx context.Context, collectionID string) (*models.Collection, error)
}

// OAuthService is implemented by services that authenticate via OAuth2 authorization code flow.
type OAuthService interface {
	// GetAuthURL returns the authorization URL for user login.
	GetAuthURL(state string) string

	// GetOAuthConfig returns the underlying OAuth2 configuration.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate installs a previously obtained token on the service.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error

	Name() string
}

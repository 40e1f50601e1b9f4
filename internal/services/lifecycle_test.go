package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"art-auction/internal/domain"
	"art-auction/pkg/utils"

	"github.com/stretchr/testify/require"
)

func TestLifecycleService_StartAuction(t *testing.T) {
	tests := []struct {
		name          string
		request       func(f *fixture, artworkID string) StartAuctionRequest
		setup         func(f *fixture, artworkID string)
		expectedError error
	}{
		{
			name: "valid_auction",
			request: func(f *fixture, artworkID string) StartAuctionRequest {
				return StartAuctionRequest{
					PhoneNumber: "555-0100", ArtworkID: artworkID,
					StartingBid: 100, MinimumPrice: 200, DurationHours: 1,
				}
			},
		},
		{
			name: "empty_phone",
			request: func(f *fixture, artworkID string) StartAuctionRequest {
				return StartAuctionRequest{
					PhoneNumber: "", ArtworkID: artworkID,
					StartingBid: 100, MinimumPrice: 200, DurationHours: 1,
				}
			},
			expectedError: domain.ErrInvalidRequest,
		},
		{
			name: "zero_starting_bid",
			request: func(f *fixture, artworkID string) StartAuctionRequest {
				return StartAuctionRequest{
					PhoneNumber: "555-0100", ArtworkID: artworkID,
					StartingBid: 0, MinimumPrice: 200, DurationHours: 1,
				}
			},
			expectedError: domain.ErrInvalidRequest,
		},
		{
			name: "zero_duration",
			request: func(f *fixture, artworkID string) StartAuctionRequest {
				return StartAuctionRequest{
					PhoneNumber: "555-0100", ArtworkID: artworkID,
					StartingBid: 100, MinimumPrice: 200, DurationHours: 0,
				}
			},
			expectedError: domain.ErrInvalidRequest,
		},
		{
			name: "unknown_user",
			request: func(f *fixture, artworkID string) StartAuctionRequest {
				return StartAuctionRequest{
					PhoneNumber: "555-9999", ArtworkID: artworkID,
					StartingBid: 100, MinimumPrice: 200, DurationHours: 1,
				}
			},
			expectedError: domain.ErrUserNotFound,
		},
		{
			name: "expired_session",
			request: func(f *fixture, artworkID string) StartAuctionRequest {
				return StartAuctionRequest{
					PhoneNumber: "555-0100", ArtworkID: artworkID,
					StartingBid: 100, MinimumPrice: 200, DurationHours: 1,
				}
			},
			setup: func(f *fixture, artworkID string) {
				f.expireSession(t, "555-0100")
			},
			expectedError: domain.ErrUnauthorized,
		},
		{
			name: "unknown_artwork",
			request: func(f *fixture, artworkID string) StartAuctionRequest {
				return StartAuctionRequest{
					PhoneNumber: "555-0100", ArtworkID: "artwork_missing",
					StartingBid: 100, MinimumPrice: 200, DurationHours: 1,
				}
			},
			expectedError: domain.ErrArtworkNotFound,
		},
		{
			name: "artwork_owned_by_other_user",
			request: func(f *fixture, artworkID string) StartAuctionRequest {
				return StartAuctionRequest{
					PhoneNumber: "555-0200", ArtworkID: artworkID,
					StartingBid: 100, MinimumPrice: 200, DurationHours: 1,
				}
			},
			setup: func(f *fixture, artworkID string) {
				f.registerWithSession(t, "555-0200")
			},
			expectedError: domain.ErrArtworkNotFound,
		},
		{
			name: "active_auction_exists",
			request: func(f *fixture, artworkID string) StartAuctionRequest {
				return StartAuctionRequest{
					PhoneNumber: "555-0100", ArtworkID: artworkID,
					StartingBid: 100, MinimumPrice: 200, DurationHours: 1,
				}
			},
			setup: func(f *fixture, artworkID string) {
				f.startAuction(t, "555-0100", artworkID, 100, 200)
			},
			expectedError: domain.ErrAuctionConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.registerWithSession(t, "555-0100")
			artwork := f.createArtwork(t, "555-0100")
			if tt.setup != nil {
				tt.setup(f, artwork.ID)
			}

			result, err := f.lifecycle.StartAuction(context.Background(), tt.request(f, artwork.ID))
			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
				return
			}

			require.NoError(t, err)
			require.NotEmpty(t, result.AuctionID)

			auction := f.auction(t, result.AuctionID)
			require.False(t, auction.IsClosed)
			require.Nil(t, auction.CurrentBid)
			require.Equal(t, auction.StartTime.Add(time.Hour), auction.EndTime)
		})
	}
}

// Concurrent starts for the same artwork must never both succeed.
func TestLifecycleService_StartAuction_ConcurrentSameArtwork(t *testing.T) {
	f := newFixture(t)
	f.registerWithSession(t, "555-0100")
	artwork := f.createArtwork(t, "555-0100")

	const attempts = 8
	results := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.lifecycle.StartAuction(context.Background(), StartAuctionRequest{
				PhoneNumber: "555-0100", ArtworkID: artwork.ID,
				StartingBid: 100, MinimumPrice: 200, DurationHours: 1,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, conflicted := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, domain.ErrAuctionConflict)
			conflicted++
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, attempts-1, conflicted)

	// The invariant the race is guarding: at most one open auction per
	// artwork.
	var open *domain.Auction
	err := f.store.View(context.Background(), func(tx domain.Tx) error {
		var viewErr error
		open, viewErr = tx.OpenAuctionByArtwork(context.Background(), artwork.ID)
		return viewErr
	})
	require.NoError(t, err)
	require.NotNil(t, open)
}

func TestLifecycleService_ListActiveAuctions(t *testing.T) {
	f := newFixture(t)
	f.registerWithSession(t, "555-0100")
	artwork := f.createArtwork(t, "555-0100")
	active := f.startAuction(t, "555-0100", artwork.ID, 100, 200)

	now := time.Now().UTC()

	// Expired but not yet swept: excluded from the active listing.
	expiredArt := f.createArtwork(t, "555-0100")
	f.seedAuction(t, &domain.Auction{
		ID: utils.GenerateID("auction"), ArtworkID: expiredArt.ID,
		StartingBid: 50, MinimumPrice: 80,
		StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour),
		CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now.Add(-2 * time.Hour),
	})

	// Not started yet: excluded as well.
	futureArt := f.createArtwork(t, "555-0100")
	f.seedAuction(t, &domain.Auction{
		ID: utils.GenerateID("auction"), ArtworkID: futureArt.ID,
		StartingBid: 50, MinimumPrice: 80,
		StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour),
		CreatedAt: now, UpdatedAt: now,
	})

	listings, err := f.lifecycle.ListActiveAuctions(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	require.Equal(t, active.ID, listings[0].ID)
	require.Equal(t, artwork.ID, listings[0].Artwork.ID)
}

// The reserve must never reach bidders through the listing payloads.
func TestLifecycleService_ListingHidesReserve(t *testing.T) {
	f := newFixture(t)
	f.registerWithSession(t, "555-0100")
	artwork := f.createArtwork(t, "555-0100")
	f.startAuction(t, "555-0100", artwork.ID, 100, 31337)

	listings, err := f.lifecycle.ListActiveAuctions(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)

	payload, err := json.Marshal(listings[0])
	require.NoError(t, err)
	require.NotContains(t, string(payload), "minimum_price")
	require.NotContains(t, string(payload), "31337")
}

func TestLifecycleService_CreateArtwork_RequiresSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.accounts.Register(context.Background(), "Ada", "555-0100", "ada@example.com")
	require.NoError(t, err)

	_, err = f.lifecycle.CreateArtwork(context.Background(), CreateArtworkRequest{
		PhoneNumber: "555-0100",
		Title:       "Untitled",
	})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

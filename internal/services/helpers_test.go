package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"art-auction/internal/domain"
	"art-auction/internal/infrastructure/memory"
	"art-auction/pkg/logger"
	"art-auction/pkg/utils"

	"github.com/stretchr/testify/require"
)

// fixture wires every service against a shared in-memory store.
type fixture struct {
	store     *memory.Store
	events    *capturePublisher
	accounts  *AccountService
	lifecycle *LifecycleService
	bidding   *BidService
	closer    *AuctionCloser
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.Nop()
	store := memory.NewStore()
	events := &capturePublisher{}

	return &fixture{
		store:     store,
		events:    events,
		accounts:  NewAccountService(store, time.Hour, log),
		lifecycle: NewLifecycleService(store, events, log),
		bidding:   NewBidService(store, events, log),
		closer:    NewAuctionCloser(store, events, nil, "test-instance", time.Minute, log),
	}
}

// registerWithSession registers a user at phone and opens a session.
func (f *fixture) registerWithSession(t *testing.T, phone string) *domain.User {
	t.Helper()

	user, err := f.accounts.Register(context.Background(), "Collector "+phone, phone, phone+"@example.com")
	require.NoError(t, err)

	_, err = f.accounts.StartSession(context.Background(), phone)
	require.NoError(t, err)

	return user
}

// createArtwork creates an artwork owned by the user at phone.
func (f *fixture) createArtwork(t *testing.T, phone string) *domain.Artwork {
	t.Helper()

	artwork, err := f.lifecycle.CreateArtwork(context.Background(), CreateArtworkRequest{
		PhoneNumber: phone,
		Title:       "Untitled No. 7",
		Description: "oil on canvas",
		Artist:      "R. Vermeer",
		ImageURL:    "https://img.example.com/u7.jpg",
	})
	require.NoError(t, err)
	return artwork
}

// startAuction runs the full StartAuction flow with sane defaults and
// returns the stored auction.
func (f *fixture) startAuction(t *testing.T, phone, artworkID string, startingBid, minimumPrice float64) *domain.Auction {
	t.Helper()

	result, err := f.lifecycle.StartAuction(context.Background(), StartAuctionRequest{
		PhoneNumber:   phone,
		ArtworkID:     artworkID,
		StartingBid:   startingBid,
		MinimumPrice:  minimumPrice,
		DurationHours: 1,
	})
	require.NoError(t, err)

	return f.auction(t, result.AuctionID)
}

func (f *fixture) auction(t *testing.T, id string) *domain.Auction {
	t.Helper()

	var auction *domain.Auction
	err := f.store.View(context.Background(), func(tx domain.Tx) error {
		var viewErr error
		auction, viewErr = tx.AuctionByID(context.Background(), id)
		return viewErr
	})
	require.NoError(t, err)
	return auction
}

// seedAuction writes an auction row directly, bypassing the lifecycle
// checks, so tests can build expired or closed states.
func (f *fixture) seedAuction(t *testing.T, auction *domain.Auction) {
	t.Helper()

	err := f.store.Update(context.Background(), func(tx domain.Tx) error {
		return tx.CreateAuction(context.Background(), auction)
	})
	require.NoError(t, err)
}

// seedBids inserts bid rows for the auction and advances currentBid to
// the highest amount, mirroring what PlaceBid would have left behind.
func (f *fixture) seedBids(t *testing.T, auctionID string, amounts []float64) map[float64]string {
	t.Helper()

	ids := make(map[float64]string, len(amounts))
	err := f.store.Update(context.Background(), func(tx domain.Tx) error {
		auction, err := tx.AuctionForUpdate(context.Background(), auctionID)
		if err != nil {
			return err
		}

		placedAt := auction.StartTime
		for _, amount := range amounts {
			placedAt = placedAt.Add(time.Minute)
			bid := &domain.Bid{
				ID:        utils.GenerateID("bid"),
				AuctionID: auctionID,
				UserID:    utils.GenerateID("user"),
				SessionID: utils.GenerateID("session"),
				Amount:    amount,
				PlacedAt:  placedAt,
			}
			if err := tx.CreateBid(context.Background(), bid); err != nil {
				return err
			}
			ids[amount] = bid.ID

			if auction.CurrentBid == nil || amount > *auction.CurrentBid {
				current := amount
				auction.CurrentBid = &current
			}
		}
		return tx.UpdateAuctionBid(context.Background(), auction)
	})
	require.NoError(t, err)
	return ids
}

// expireSession replaces the user's current session with one that has
// already lapsed.
func (f *fixture) expireSession(t *testing.T, phone string) {
	t.Helper()

	err := f.store.Update(context.Background(), func(tx domain.Tx) error {
		user, err := tx.UserByPhoneForUpdate(context.Background(), phone)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		session := &domain.Session{
			ID:        utils.GenerateID("session"),
			UserID:    user.ID,
			CreatedAt: now.Add(-2 * time.Hour),
			ExpiresAt: now.Add(-time.Hour),
		}
		if err := tx.CreateSession(context.Background(), session); err != nil {
			return err
		}
		return tx.SetLastSession(context.Background(), user.ID, &session.ID)
	})
	require.NoError(t, err)
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []*domain.AuctionEvent
}

func (p *capturePublisher) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) eventsOfType(eventType domain.AuctionEventType) []*domain.AuctionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	var matched []*domain.AuctionEvent
	for _, event := range p.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

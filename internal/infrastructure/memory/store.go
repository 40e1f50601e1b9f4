// Package memory holds an in-memory implementation of domain.Store used
// by the service tests. Update calls are serialized by a single mutex
// and roll back by restoring a pre-transaction snapshot, so the store
// shows the same atomicity and serialization the MySQL store gets from
// transactions and row locks.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"art-auction/internal/domain"
)

type Store struct {
	mu   sync.RWMutex
	data *state
}

type state struct {
	users    map[string]*domain.User // keyed by user id
	byPhone  map[string]string       // phone number -> user id
	byEmail  map[string]string       // email -> user id
	sessions map[string]*domain.Session
	artworks map[string]*domain.Artwork
	auctions map[string]*domain.Auction
	bids     map[string][]*domain.Bid // auction id -> bids in insertion order
}

func NewStore() *Store {
	return &Store{data: &state{
		users:    make(map[string]*domain.User),
		byPhone:  make(map[string]string),
		byEmail:  make(map[string]string),
		sessions: make(map[string]*domain.Session),
		artworks: make(map[string]*domain.Artwork),
		auctions: make(map[string]*domain.Auction),
		bids:     make(map[string][]*domain.Bid),
	}}
}

func (s *Store) View(ctx context.Context, fn func(tx domain.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{data: s.data})
}

func (s *Store) Update(ctx context.Context, fn func(tx domain.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&memTx{data: s.data}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (st *state) clone() *state {
	next := &state{
		users:    make(map[string]*domain.User, len(st.users)),
		byPhone:  make(map[string]string, len(st.byPhone)),
		byEmail:  make(map[string]string, len(st.byEmail)),
		sessions: make(map[string]*domain.Session, len(st.sessions)),
		artworks: make(map[string]*domain.Artwork, len(st.artworks)),
		auctions: make(map[string]*domain.Auction, len(st.auctions)),
		bids:     make(map[string][]*domain.Bid, len(st.bids)),
	}
	for id, u := range st.users {
		next.users[id] = cloneUser(u)
	}
	for phone, id := range st.byPhone {
		next.byPhone[phone] = id
	}
	for email, id := range st.byEmail {
		next.byEmail[email] = id
	}
	for id, sess := range st.sessions {
		copied := *sess
		next.sessions[id] = &copied
	}
	for id, art := range st.artworks {
		next.artworks[id] = cloneArtwork(art)
	}
	for id, a := range st.auctions {
		next.auctions[id] = cloneAuction(a)
	}
	for id, bids := range st.bids {
		copied := make([]*domain.Bid, len(bids))
		for i, b := range bids {
			bid := *b
			copied[i] = &bid
		}
		next.bids[id] = copied
	}
	return next
}

type memTx struct {
	data *state
}

func (t *memTx) UserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	id, ok := t.data.byPhone[phone]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(t.data.users[id]), nil
}

func (t *memTx) UserByPhoneForUpdate(ctx context.Context, phone string) (*domain.User, error) {
	return t.UserByPhone(ctx, phone)
}

func (t *memTx) CreateUser(ctx context.Context, user *domain.User) error {
	if _, ok := t.data.byPhone[user.PhoneNumber]; ok {
		return fmt.Errorf("create user %s: %w", user.PhoneNumber, domain.ErrUserExists)
	}
	if _, ok := t.data.byEmail[user.Email]; ok {
		return fmt.Errorf("create user %s: %w", user.Email, domain.ErrUserExists)
	}
	t.data.users[user.ID] = cloneUser(user)
	t.data.byPhone[user.PhoneNumber] = user.ID
	t.data.byEmail[user.Email] = user.ID
	return nil
}

func (t *memTx) SetLastSession(ctx context.Context, userID string, sessionID *string) error {
	user, ok := t.data.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if sessionID == nil {
		user.LastSessionID = nil
		return nil
	}
	id := *sessionID
	user.LastSessionID = &id
	return nil
}

func (t *memTx) SessionByID(ctx context.Context, id string) (*domain.Session, error) {
	session, ok := t.data.sessions[id]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	copied := *session
	return &copied, nil
}

func (t *memTx) CreateSession(ctx context.Context, session *domain.Session) error {
	copied := *session
	t.data.sessions[session.ID] = &copied
	return nil
}

func (t *memTx) DeleteSession(ctx context.Context, id string) error {
	delete(t.data.sessions, id)
	return nil
}

func (t *memTx) ArtworkByID(ctx context.Context, id string) (*domain.Artwork, error) {
	artwork, ok := t.data.artworks[id]
	if !ok {
		return nil, domain.ErrArtworkNotFound
	}
	return cloneArtwork(artwork), nil
}

func (t *memTx) CreateArtwork(ctx context.Context, artwork *domain.Artwork) error {
	t.data.artworks[artwork.ID] = cloneArtwork(artwork)
	return nil
}

func (t *memTx) AuctionByID(ctx context.Context, id string) (*domain.Auction, error) {
	auction, ok := t.data.auctions[id]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return cloneAuction(auction), nil
}

func (t *memTx) AuctionForUpdate(ctx context.Context, id string) (*domain.Auction, error) {
	return t.AuctionByID(ctx, id)
}

func (t *memTx) OpenAuctionByArtwork(ctx context.Context, artworkID string) (*domain.Auction, error) {
	for _, auction := range t.data.auctions {
		if auction.ArtworkID == artworkID && !auction.IsClosed {
			return cloneAuction(auction), nil
		}
	}
	return nil, nil
}

func (t *memTx) CreateAuction(ctx context.Context, auction *domain.Auction) error {
	for _, existing := range t.data.auctions {
		if existing.ArtworkID == auction.ArtworkID && !existing.IsClosed {
			return fmt.Errorf("create auction for artwork %s: %w", auction.ArtworkID, domain.ErrAuctionConflict)
		}
	}
	t.data.auctions[auction.ID] = cloneAuction(auction)
	return nil
}

func (t *memTx) UpdateAuctionBid(ctx context.Context, auction *domain.Auction) error {
	stored, ok := t.data.auctions[auction.ID]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	if auction.CurrentBid == nil {
		stored.CurrentBid = nil
	} else {
		amount := *auction.CurrentBid
		stored.CurrentBid = &amount
	}
	stored.UpdatedAt = auction.UpdatedAt
	return nil
}

func (t *memTx) CloseAuction(ctx context.Context, auction *domain.Auction) (bool, error) {
	stored, ok := t.data.auctions[auction.ID]
	if !ok {
		return false, domain.ErrAuctionNotFound
	}
	if stored.IsClosed {
		return false, nil
	}
	stored.IsClosed = true
	if auction.CurrentBid != nil {
		amount := *auction.CurrentBid
		stored.CurrentBid = &amount
	}
	if auction.WinningBidID != nil {
		id := *auction.WinningBidID
		stored.WinningBidID = &id
	}
	stored.UpdatedAt = auction.UpdatedAt
	return true, nil
}

func (t *memTx) ActiveAuctions(ctx context.Context, now time.Time) ([]*domain.AuctionListing, error) {
	var listings []*domain.AuctionListing
	for _, auction := range t.data.auctions {
		if auction.IsClosed || now.Before(auction.StartTime) || !now.Before(auction.EndTime) {
			continue
		}
		listing, err := t.listingFor(auction)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].EndTime.Before(listings[j].EndTime)
	})
	return listings, nil
}

func (t *memTx) ListingByID(ctx context.Context, id string) (*domain.AuctionListing, error) {
	auction, ok := t.data.auctions[id]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return t.listingFor(auction)
}

func (t *memTx) listingFor(auction *domain.Auction) (*domain.AuctionListing, error) {
	artwork, ok := t.data.artworks[auction.ArtworkID]
	if !ok {
		return nil, domain.ErrArtworkNotFound
	}
	return &domain.AuctionListing{
		Auction: *cloneAuction(auction),
		Artwork: *cloneArtwork(artwork),
	}, nil
}

func (t *memTx) ExpiredOpenAuctionIDs(ctx context.Context, now time.Time) ([]string, error) {
	var ids []string
	for id, auction := range t.data.auctions {
		if !auction.IsClosed && !now.Before(auction.EndTime) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (t *memTx) CreateBid(ctx context.Context, bid *domain.Bid) error {
	copied := *bid
	t.data.bids[bid.AuctionID] = append(t.data.bids[bid.AuctionID], &copied)
	return nil
}

func (t *memTx) BidsForAuction(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	stored := t.data.bids[auctionID]
	bids := make([]*domain.Bid, 0, len(stored))
	for _, b := range stored {
		bid := *b
		bids = append(bids, &bid)
	}
	sort.SliceStable(bids, func(i, j int) bool {
		if bids[i].Amount != bids[j].Amount {
			return bids[i].Amount > bids[j].Amount
		}
		return bids[i].PlacedAt.Before(bids[j].PlacedAt)
	})
	return bids, nil
}

func cloneUser(u *domain.User) *domain.User {
	copied := *u
	if u.LastSessionID != nil {
		id := *u.LastSessionID
		copied.LastSessionID = &id
	}
	return &copied
}

func cloneArtwork(a *domain.Artwork) *domain.Artwork {
	copied := *a
	if a.OwnerID != nil {
		id := *a.OwnerID
		copied.OwnerID = &id
	}
	return &copied
}

func cloneAuction(a *domain.Auction) *domain.Auction {
	copied := *a
	if a.CurrentBid != nil {
		amount := *a.CurrentBid
		copied.CurrentBid = &amount
	}
	if a.WinningBidID != nil {
		id := *a.WinningBidID
		copied.WinningBidID = &id
	}
	return &copied
}

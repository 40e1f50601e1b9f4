package domain

import (
	"context"
	"time"
)

// Store is the transactional persistence boundary. Update runs fn inside
// a read-write transaction: the transaction commits when fn returns nil
// and rolls back otherwise, so a failing operation leaves no partial
// state. View runs fn against a read-only snapshot.
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the per-transaction data surface. The ForUpdate reads take a row
// lock that is held until the enclosing transaction finishes; every
// check-then-act sequence on an auction goes through AuctionForUpdate so
// concurrent bids and closes serialize on the auction row.
type Tx interface {
	UserByPhone(ctx context.Context, phone string) (*User, error)
	UserByPhoneForUpdate(ctx context.Context, phone string) (*User, error)
	CreateUser(ctx context.Context, user *User) error
	SetLastSession(ctx context.Context, userID string, sessionID *string) error

	SessionByID(ctx context.Context, id string) (*Session, error)
	CreateSession(ctx context.Context, session *Session) error
	DeleteSession(ctx context.Context, id string) error

	ArtworkByID(ctx context.Context, id string) (*Artwork, error)
	CreateArtwork(ctx context.Context, artwork *Artwork) error

	AuctionByID(ctx context.Context, id string) (*Auction, error)
	AuctionForUpdate(ctx context.Context, id string) (*Auction, error)
	OpenAuctionByArtwork(ctx context.Context, artworkID string) (*Auction, error)
	CreateAuction(ctx context.Context, auction *Auction) error
	UpdateAuctionBid(ctx context.Context, auction *Auction) error
	ActiveAuctions(ctx context.Context, now time.Time) ([]*AuctionListing, error)
	ListingByID(ctx context.Context, id string) (*AuctionListing, error)
	ExpiredOpenAuctionIDs(ctx context.Context, now time.Time) ([]string, error)

	// CloseAuction marks the auction closed, conditional on it still
	// being open. It reports false when another path already closed it,
	// which callers treat as success.
	CloseAuction(ctx context.Context, auction *Auction) (bool, error)

	CreateBid(ctx context.Context, bid *Bid) error
	BidsForAuction(ctx context.Context, auctionID string) ([]*Bid, error)
}

// EventPublisher fans committed auction state changes out to observers.
// Publishing is best effort; core correctness never depends on it.
type EventPublisher interface {
	PublishAuctionEvent(ctx context.Context, event *AuctionEvent) error
}

type EventHandler func(event *AuctionEvent) error

// EventSubscriber delivers published auction events until ctx ends.
type EventSubscriber interface {
	SubscribeToAuctionEvents(ctx context.Context, handler EventHandler) error
}

// LeaderElection elects a single instance to run the closing sweep.
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// LiveConnection is one websocket subscriber of an auction's events.
type LiveConnection interface {
	Send(message []byte) error
	Close() error
	AuctionID() string
}

// AuctionBroadcaster pushes a message to every live connection watching
// an auction.
type AuctionBroadcaster interface {
	BroadcastToAuction(auctionID string, message []byte) error
}

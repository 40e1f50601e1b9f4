package domain

import (
	"time"
)

// User is a registered marketplace participant. The phone number is the
// key the API uses for auction ownership and bidding.
type User struct {
	ID            string     `json:"user_id"`
	Name          string     `json:"name"`
	PhoneNumber   string     `json:"phone_number"`
	Email         string     `json:"email"`
	LastSessionID *string    `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Session is a time-boxed credential. Expiry is checked lazily on use;
// expired rows are never swept.
type Session struct {
	ID        string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer usable at the given
// instant.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Artwork is a listable piece. OwnerID is nil for artworks imported
// without an owning account.
type Artwork struct {
	ID          string    `json:"artwork_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Artist      string    `json:"artist"`
	ImageURL    string    `json:"image_url"`
	OwnerID     *string   `json:"owner_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Auction is a timed sale of one artwork. MinimumPrice is the hidden
// reserve and is never serialized. CurrentBid tracks the highest
// accepted bid and is nil until the first bid lands. WinningBidID is set
// on closure only when the reserve was met.
type Auction struct {
	ID           string     `json:"auction_id"`
	ArtworkID    string     `json:"artwork_id"`
	StartingBid  float64    `json:"starting_bid"`
	MinimumPrice float64    `json:"-"`
	CurrentBid   *float64   `json:"current_bid,omitempty"`
	WinningBidID *string    `json:"winning_bid_id,omitempty"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      time.Time  `json:"end_time"`
	IsClosed     bool       `json:"is_closed"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Open reports whether the auction accepts bids at the given instant.
func (a *Auction) Open(now time.Time) bool {
	return !a.IsClosed && now.Before(a.EndTime)
}

// AuctionListing is an auction joined with its artwork, as returned by
// the read endpoints.
type AuctionListing struct {
	Auction
	Artwork Artwork `json:"artwork"`
}

// Bid is immutable once recorded.
type Bid struct {
	ID        string    `json:"bid_id"`
	AuctionID string    `json:"auction_id"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"-"`
	Amount    float64   `json:"bid_amount"`
	PlacedAt  time.Time `json:"bid_time"`
}

// AuctionEvent is published after a committed state change for live
// fan-out. It carries no reserve information.
type AuctionEvent struct {
	Type      AuctionEventType `json:"type"`
	AuctionID string           `json:"auction_id"`
	UserID    string           `json:"user_id,omitempty"`
	Amount    float64          `json:"amount,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

type AuctionEventType string

const (
	EventAuctionCreated AuctionEventType = "auction_created"
	EventBidAccepted    AuctionEventType = "bid_accepted"
	EventAuctionClosed  AuctionEventType = "auction_closed"
)

package domain

import "errors"

// Request validation and lookup errors. Handlers translate these into
// HTTP statuses; callers can match them with errors.Is across any number
// of wrapping layers.
var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already registered")
	ErrUnauthorized    = errors.New("no active session")
	ErrArtworkNotFound = errors.New("artwork not found or not owned by user")
	ErrAuctionNotFound = errors.New("auction not found")
)

// Auction state errors.
var (
	// ErrAuctionConflict signals that the artwork already has an open
	// auction. Returned both from the pre-insert check and from the
	// store when the unique open-auction index rejects a racing insert.
	ErrAuctionConflict = errors.New("auction already active for artwork")

	// ErrInvalidAuctionState signals a bid against a closed or expired
	// auction.
	ErrInvalidAuctionState = errors.New("auction is closed or expired")

	ErrBidTooLow = errors.New("bid amount too low")
)

package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"art-auction/internal/domain"
)

const auctionColumns = `id, artwork_id, starting_bid, minimum_price, current_bid,
        winning_bid_id, start_time, end_time, is_closed, created_at, updated_at`

func (t *sqlTx) AuctionByID(ctx context.Context, id string) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ?`
	return scanAuction(t.tx.QueryRowContext(ctx, query, id))
}

func (t *sqlTx) AuctionForUpdate(ctx context.Context, id string) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ? FOR UPDATE`
	return scanAuction(t.tx.QueryRowContext(ctx, query, id))
}

// OpenAuctionByArtwork returns the artwork's open auction, locked, or
// nil when none exists.
func (t *sqlTx) OpenAuctionByArtwork(ctx context.Context, artworkID string) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions
        WHERE artwork_id = ? AND is_closed = 0 FOR UPDATE`

	auction, err := scanAuction(t.tx.QueryRowContext(ctx, query, artworkID))
	if errors.Is(err, domain.ErrAuctionNotFound) {
		return nil, nil
	}
	return auction, err
}

func (t *sqlTx) CreateAuction(ctx context.Context, auction *domain.Auction) error {
	query := `
        INSERT INTO auctions (id, artwork_id, starting_bid, minimum_price,
            start_time, end_time, is_closed, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
    `
	_, err := t.tx.ExecContext(ctx, query,
		auction.ID, auction.ArtworkID, auction.StartingBid, auction.MinimumPrice,
		auction.StartTime, auction.EndTime, auction.CreatedAt, auction.UpdatedAt)
	// The unique index on open_artwork_id rejects a second open auction
	// that raced past the pre-insert check.
	if isDuplicateEntry(err) {
		return fmt.Errorf("create auction for artwork %s: %w", auction.ArtworkID, domain.ErrAuctionConflict)
	}
	return err
}

func (t *sqlTx) UpdateAuctionBid(ctx context.Context, auction *domain.Auction) error {
	query := `UPDATE auctions SET current_bid = ?, updated_at = ? WHERE id = ?`
	_, err := t.tx.ExecContext(ctx, query,
		auction.CurrentBid, auction.UpdatedAt, auction.ID)
	return err
}

func (t *sqlTx) CloseAuction(ctx context.Context, auction *domain.Auction) (bool, error) {
	query := `
        UPDATE auctions
        SET is_closed = 1, current_bid = ?, winning_bid_id = ?, updated_at = ?
        WHERE id = ? AND is_closed = 0
    `
	result, err := t.tx.ExecContext(ctx, query,
		auction.CurrentBid, auction.WinningBidID, auction.UpdatedAt, auction.ID)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (t *sqlTx) ActiveAuctions(ctx context.Context, now time.Time) ([]*domain.AuctionListing, error) {
	query := `
        SELECT ` + listingColumns + `
        FROM auctions a
        JOIN artworks w ON w.id = a.artwork_id
        WHERE a.is_closed = 0 AND a.start_time <= ? AND ? < a.end_time
        ORDER BY a.end_time ASC
    `

	rows, err := t.tx.QueryContext(ctx, query, now, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []*domain.AuctionListing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}

	return listings, rows.Err()
}

func (t *sqlTx) ListingByID(ctx context.Context, id string) (*domain.AuctionListing, error) {
	query := `
        SELECT ` + listingColumns + `
        FROM auctions a
        JOIN artworks w ON w.id = a.artwork_id
        WHERE a.id = ?
    `

	rows, err := t.tx.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrAuctionNotFound
	}
	return scanListing(rows)
}

func (t *sqlTx) ExpiredOpenAuctionIDs(ctx context.Context, now time.Time) ([]string, error) {
	query := `SELECT id FROM auctions WHERE is_closed = 0 AND end_time <= ?`

	rows, err := t.tx.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

const listingColumns = `a.id, a.artwork_id, a.starting_bid, a.minimum_price, a.current_bid,
        a.winning_bid_id, a.start_time, a.end_time, a.is_closed, a.created_at, a.updated_at,
        w.id, w.title, w.description, w.artist, w.image_url, w.owner_id, w.created_at`

func scanAuction(row *sql.Row) (*domain.Auction, error) {
	var auction domain.Auction
	var currentBid sql.NullFloat64
	var winningBidID sql.NullString

	err := row.Scan(&auction.ID, &auction.ArtworkID, &auction.StartingBid,
		&auction.MinimumPrice, &currentBid, &winningBidID,
		&auction.StartTime, &auction.EndTime, &auction.IsClosed,
		&auction.CreatedAt, &auction.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAuctionNotFound
	}
	if err != nil {
		return nil, err
	}

	if currentBid.Valid {
		auction.CurrentBid = &currentBid.Float64
	}
	if winningBidID.Valid {
		auction.WinningBidID = &winningBidID.String
	}
	return &auction, nil
}

func scanListing(rows *sql.Rows) (*domain.AuctionListing, error) {
	var listing domain.AuctionListing
	var currentBid sql.NullFloat64
	var winningBidID, ownerID sql.NullString

	err := rows.Scan(&listing.ID, &listing.ArtworkID, &listing.StartingBid,
		&listing.MinimumPrice, &currentBid, &winningBidID,
		&listing.StartTime, &listing.EndTime, &listing.IsClosed,
		&listing.CreatedAt, &listing.UpdatedAt,
		&listing.Artwork.ID, &listing.Artwork.Title, &listing.Artwork.Description,
		&listing.Artwork.Artist, &listing.Artwork.ImageURL, &ownerID,
		&listing.Artwork.CreatedAt)
	if err != nil {
		return nil, err
	}

	if currentBid.Valid {
		listing.CurrentBid = &currentBid.Float64
	}
	if winningBidID.Valid {
		listing.WinningBidID = &winningBidID.String
	}
	if ownerID.Valid {
		listing.Artwork.OwnerID = &ownerID.String
	}
	return &listing, nil
}

package mysql

import (
	"context"

	"art-auction/internal/domain"
)

func (t *sqlTx) CreateBid(ctx context.Context, bid *domain.Bid) error {
	query := `
        INSERT INTO bids (id, auction_id, user_id, session_id, amount, placed_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	_, err := t.tx.ExecContext(ctx, query,
		bid.ID, bid.AuctionID, bid.UserID, bid.SessionID, bid.Amount, bid.PlacedAt)
	return err
}

func (t *sqlTx) BidsForAuction(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	query := `
        SELECT id, auction_id, user_id, session_id, amount, placed_at
        FROM bids
        WHERE auction_id = ?
        ORDER BY amount DESC, placed_at ASC
    `

	rows, err := t.tx.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		var bid domain.Bid
		err := rows.Scan(&bid.ID, &bid.AuctionID, &bid.UserID, &bid.SessionID,
			&bid.Amount, &bid.PlacedAt)
		if err != nil {
			return nil, err
		}
		bids = append(bids, &bid)
	}

	return bids, rows.Err()
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"art-auction/internal/domain"
	"art-auction/pkg/logger"
	"art-auction/pkg/utils"
)

// BidService validates and records bids. The auction row is read with a
// row lock inside the same transaction that inserts the bid and advances
// currentBid, so two concurrent bids serialize: the second one compares
// its amount against the first one's committed update, never against a
// stale read.
type BidService struct {
	store  domain.Store
	events domain.EventPublisher
	log    logger.Logger
}

func NewBidService(store domain.Store, events domain.EventPublisher, log logger.Logger) *BidService {
	return &BidService{
		store:  store,
		events: events,
		log:    log,
	}
}

type PlaceBidRequest struct {
	PhoneNumber string
	AuctionID   string
	BidAmount   float64
}

type PlaceBidResult struct {
	BidID   string `json:"bidId"`
	Message string `json:"message"`
}

func (s *BidService) PlaceBid(ctx context.Context, req PlaceBidRequest) (*PlaceBidResult, error) {
	if req.PhoneNumber == "" {
		return nil, fmt.Errorf("%w: phone number is required", domain.ErrInvalidRequest)
	}
	if req.AuctionID == "" {
		return nil, fmt.Errorf("%w: auction id is required", domain.ErrInvalidRequest)
	}
	if req.BidAmount <= 0 {
		return nil, fmt.Errorf("%w: bid amount must be positive", domain.ErrInvalidRequest)
	}

	var bid *domain.Bid
	err := s.store.Update(ctx, func(tx domain.Tx) error {
		user, err := tx.UserByPhone(ctx, req.PhoneNumber)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		session, err := activeSession(ctx, tx, user, now)
		if err != nil {
			return err
		}

		auction, err := tx.AuctionForUpdate(ctx, req.AuctionID)
		if errors.Is(err, domain.ErrAuctionNotFound) {
			return fmt.Errorf("auction %s: %w", req.AuctionID, domain.ErrInvalidAuctionState)
		}
		if err != nil {
			return err
		}
		if !auction.Open(now) {
			return fmt.Errorf("auction %s: %w", req.AuctionID, domain.ErrInvalidAuctionState)
		}

		if req.BidAmount <= auction.StartingBid {
			return fmt.Errorf("%w: bid must exceed starting bid %.2f", domain.ErrBidTooLow, auction.StartingBid)
		}
		if auction.CurrentBid != nil && req.BidAmount <= *auction.CurrentBid {
			return fmt.Errorf("%w: current bid is %.2f", domain.ErrBidTooLow, *auction.CurrentBid)
		}

		bid = &domain.Bid{
			ID:        utils.GenerateID("bid"),
			AuctionID: auction.ID,
			UserID:    user.ID,
			SessionID: session.ID,
			Amount:    req.BidAmount,
			PlacedAt:  now,
		}
		if err := tx.CreateBid(ctx, bid); err != nil {
			return err
		}

		auction.CurrentBid = &bid.Amount
		auction.UpdatedAt = now
		return tx.UpdateAuctionBid(ctx, auction)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Bid accepted", "bid_id", bid.ID, "auction_id", bid.AuctionID,
		"user_id", bid.UserID, "amount", bid.Amount)
	s.publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventBidAccepted,
		AuctionID: bid.AuctionID,
		UserID:    bid.UserID,
		Amount:    bid.Amount,
		Timestamp: bid.PlacedAt,
	})

	return &PlaceBidResult{
		BidID:   bid.ID,
		Message: "bid placed successfully",
	}, nil
}

// BidsForAuction returns the auction's bids, highest amount first. An
// auction with no bids yields an empty list; only an unknown auction is
// an error.
func (s *BidService) BidsForAuction(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("%w: auction id is required", domain.ErrInvalidRequest)
	}

	var bids []*domain.Bid
	err := s.store.View(ctx, func(tx domain.Tx) error {
		if _, err := tx.AuctionByID(ctx, auctionID); err != nil {
			return err
		}

		var viewErr error
		bids, viewErr = tx.BidsForAuction(ctx, auctionID)
		return viewErr
	})
	if err != nil {
		return nil, err
	}

	if bids == nil {
		bids = []*domain.Bid{}
	}
	return bids, nil
}

func (s *BidService) publish(ctx context.Context, event *domain.AuctionEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishAuctionEvent(ctx, event); err != nil {
		s.log.Error("Failed to publish auction event", "auction_id", event.AuctionID,
			"type", event.Type, "error", err)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"art-auction/internal/domain"
	"art-auction/pkg/logger"

	"github.com/robfig/cron/v3"
)

// AuctionCloser sweeps expired open auctions on a fixed period and
// closes each one in its own transaction. Closure is idempotent, so an
// overlapping sweep from another instance or a prior tick is harmless.
type AuctionCloser struct {
	store      domain.Store
	events     domain.EventPublisher
	election   domain.LeaderElection
	instanceID string
	interval   time.Duration
	cron       *cron.Cron
	log        logger.Logger
}

// NewAuctionCloser builds the closer. election may be nil, in which case
// every tick sweeps; with an election only the current leader does.
func NewAuctionCloser(store domain.Store, events domain.EventPublisher,
	election domain.LeaderElection, instanceID string, interval time.Duration,
	log logger.Logger) *AuctionCloser {
	return &AuctionCloser{
		store:      store,
		events:     events,
		election:   election,
		instanceID: instanceID,
		interval:   interval,
		cron:       cron.New(),
		log:        log,
	}
}

func (c *AuctionCloser) Start(ctx context.Context) error {
	c.log.Info("Starting auction closer", "interval", c.interval)

	_, err := c.cron.AddFunc(fmt.Sprintf("@every %s", c.interval), func() {
		c.tick(ctx)
	})
	if err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the schedule and waits for an in-flight tick, so shutdown
// never abandons a half-processed sweep (each closure transaction still
// commits or rolls back whole either way).
func (c *AuctionCloser) Stop() error {
	c.log.Info("Stopping auction closer")
	<-c.cron.Stop().Done()
	return nil
}

func (c *AuctionCloser) tick(ctx context.Context) {
	if c.election != nil {
		isLeader, err := c.election.IsLeader(ctx, c.instanceID)
		if err != nil {
			c.log.Error("Failed to check leadership", "error", err)
			return
		}
		if !isLeader {
			return
		}
	}

	c.sweep(ctx)
}

// sweep finds everything past its end time and closes each auction in a
// transaction of its own: one failure is logged and skipped, the auction
// stays open and the next tick retries it.
func (c *AuctionCloser) sweep(ctx context.Context) {
	var ids []string
	err := c.store.View(ctx, func(tx domain.Tx) error {
		var viewErr error
		ids, viewErr = tx.ExpiredOpenAuctionIDs(ctx, time.Now().UTC())
		return viewErr
	})
	if err != nil {
		c.log.Error("Failed to list expired auctions", "error", err)
		return
	}

	for _, id := range ids {
		if err := c.closeOne(ctx, id); err != nil {
			c.log.Error("Failed to close auction", "auction_id", id, "error", err)
		}
	}
}

// closeOne closes a single auction. Finding it already closed, or losing
// the conditional update to a concurrent closer, is a silent no-op.
func (c *AuctionCloser) closeOne(ctx context.Context, auctionID string) error {
	var event *domain.AuctionEvent

	err := c.store.Update(ctx, func(tx domain.Tx) error {
		auction, err := tx.AuctionForUpdate(ctx, auctionID)
		if errors.Is(err, domain.ErrAuctionNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if auction.IsClosed {
			return nil
		}

		bids, err := tx.BidsForAuction(ctx, auction.ID)
		if err != nil {
			return err
		}

		winner := winningBid(bids, auction.MinimumPrice)
		now := time.Now().UTC()
		if winner != nil {
			auction.CurrentBid = &winner.Amount
			auction.WinningBidID = &winner.ID
		}
		// No winner: currentBid stays at the highest submitted bid and
		// winningBidId stays NULL.
		auction.UpdatedAt = now

		closed, err := tx.CloseAuction(ctx, auction)
		if err != nil {
			return err
		}
		if !closed {
			return nil
		}

		event = &domain.AuctionEvent{
			Type:      domain.EventAuctionClosed,
			AuctionID: auction.ID,
			Timestamp: now,
		}
		if winner != nil {
			event.UserID = winner.UserID
			event.Amount = winner.Amount
		}
		return nil
	})
	if err != nil {
		return err
	}

	if event != nil {
		c.log.Info("Auction closed", "auction_id", auctionID, "winner", event.UserID != "")
		if c.events != nil {
			if pubErr := c.events.PublishAuctionEvent(ctx, event); pubErr != nil {
				c.log.Error("Failed to publish close event", "auction_id", auctionID, "error", pubErr)
			}
		}
	}
	return nil
}

// winningBid picks the highest bid meeting the reserve, or nil when no
// bid does.
func winningBid(bids []*domain.Bid, minimumPrice float64) *domain.Bid {
	var winner *domain.Bid
	for _, bid := range bids {
		if bid.Amount < minimumPrice {
			continue
		}
		if winner == nil || bid.Amount > winner.Amount {
			winner = bid
		}
	}
	return winner
}

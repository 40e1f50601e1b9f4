package services

import (
	"context"
	"fmt"
	"time"

	"art-auction/internal/domain"
	"art-auction/pkg/logger"
	"art-auction/pkg/utils"
)

// LifecycleService validates and creates auctions and serves the
// read-side listings. Creation runs its whole precondition chain and the
// insert inside one transaction; the store's unique open-auction index
// backstops the conflict check against concurrent creators.
type LifecycleService struct {
	store  domain.Store
	events domain.EventPublisher
	log    logger.Logger
}

func NewLifecycleService(store domain.Store, events domain.EventPublisher, log logger.Logger) *LifecycleService {
	return &LifecycleService{
		store:  store,
		events: events,
		log:    log,
	}
}

type StartAuctionRequest struct {
	PhoneNumber   string
	ArtworkID     string
	StartingBid   float64
	MinimumPrice  float64
	DurationHours int
}

type StartAuctionResult struct {
	AuctionID string `json:"auctionId"`
	Message   string `json:"message"`
}

func (s *LifecycleService) StartAuction(ctx context.Context, req StartAuctionRequest) (*StartAuctionResult, error) {
	if req.PhoneNumber == "" {
		return nil, fmt.Errorf("%w: phone number is required", domain.ErrInvalidRequest)
	}
	if req.ArtworkID == "" {
		return nil, fmt.Errorf("%w: artwork id is required", domain.ErrInvalidRequest)
	}
	if req.StartingBid <= 0 {
		return nil, fmt.Errorf("%w: starting bid must be positive", domain.ErrInvalidRequest)
	}
	if req.MinimumPrice < 0 {
		return nil, fmt.Errorf("%w: minimum price must not be negative", domain.ErrInvalidRequest)
	}
	if req.DurationHours < 1 {
		return nil, fmt.Errorf("%w: duration must be at least one hour", domain.ErrInvalidRequest)
	}

	var auction *domain.Auction
	err := s.store.Update(ctx, func(tx domain.Tx) error {
		user, err := tx.UserByPhone(ctx, req.PhoneNumber)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if _, err := activeSession(ctx, tx, user, now); err != nil {
			return err
		}

		artwork, err := tx.ArtworkByID(ctx, req.ArtworkID)
		if err != nil {
			return err
		}
		if artwork.OwnerID == nil || *artwork.OwnerID != user.ID {
			return fmt.Errorf("artwork %s: %w", req.ArtworkID, domain.ErrArtworkNotFound)
		}

		existing, err := tx.OpenAuctionByArtwork(ctx, req.ArtworkID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("artwork %s: %w", req.ArtworkID, domain.ErrAuctionConflict)
		}

		auction = &domain.Auction{
			ID:           utils.GenerateID("auction"),
			ArtworkID:    req.ArtworkID,
			StartingBid:  req.StartingBid,
			MinimumPrice: req.MinimumPrice,
			StartTime:    now,
			EndTime:      now.Add(time.Duration(req.DurationHours) * time.Hour),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.CreateAuction(ctx, auction)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Auction created", "auction_id", auction.ID, "artwork_id", auction.ArtworkID,
		"end_time", auction.EndTime)
	s.publish(ctx, &domain.AuctionEvent{
		Type:      domain.EventAuctionCreated,
		AuctionID: auction.ID,
		Timestamp: auction.CreatedAt,
	})

	return &StartAuctionResult{
		AuctionID: auction.ID,
		Message:   "auction started successfully",
	}, nil
}

func (s *LifecycleService) ListActiveAuctions(ctx context.Context) ([]*domain.AuctionListing, error) {
	var listings []*domain.AuctionListing
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var viewErr error
		listings, viewErr = tx.ActiveAuctions(ctx, time.Now().UTC())
		return viewErr
	})
	if err != nil {
		return nil, err
	}

	if listings == nil {
		listings = []*domain.AuctionListing{}
	}
	return listings, nil
}

func (s *LifecycleService) GetAuction(ctx context.Context, auctionID string) (*domain.AuctionListing, error) {
	var listing *domain.AuctionListing
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var viewErr error
		listing, viewErr = tx.ListingByID(ctx, auctionID)
		return viewErr
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

type CreateArtworkRequest struct {
	PhoneNumber string
	Title       string
	Description string
	Artist      string
	ImageURL    string
}

// CreateArtwork registers an artwork owned by the calling user. Listing
// it for sale is a separate StartAuction call.
func (s *LifecycleService) CreateArtwork(ctx context.Context, req CreateArtworkRequest) (*domain.Artwork, error) {
	if req.PhoneNumber == "" {
		return nil, fmt.Errorf("%w: phone number is required", domain.ErrInvalidRequest)
	}
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidRequest)
	}

	var artwork *domain.Artwork
	err := s.store.Update(ctx, func(tx domain.Tx) error {
		user, err := tx.UserByPhone(ctx, req.PhoneNumber)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if _, err := activeSession(ctx, tx, user, now); err != nil {
			return err
		}

		artwork = &domain.Artwork{
			ID:          utils.GenerateID("artwork"),
			Title:       req.Title,
			Description: req.Description,
			Artist:      req.Artist,
			ImageURL:    req.ImageURL,
			OwnerID:     &user.ID,
			CreatedAt:   now,
		}
		return tx.CreateArtwork(ctx, artwork)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Artwork created", "artwork_id", artwork.ID, "title", artwork.Title)
	return artwork, nil
}

func (s *LifecycleService) publish(ctx context.Context, event *domain.AuctionEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishAuctionEvent(ctx, event); err != nil {
		s.log.Error("Failed to publish auction event", "auction_id", event.AuctionID,
			"type", event.Type, "error", err)
	}
}

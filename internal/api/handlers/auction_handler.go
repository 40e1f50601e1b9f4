package handlers

import (
	"net/http"

	"art-auction/internal/services"
	"art-auction/pkg/logger"

	"github.com/labstack/echo/v4"
)

type AuctionHandler struct {
	lifecycle *services.LifecycleService
	log       logger.Logger
}

func NewAuctionHandler(lifecycle *services.LifecycleService, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{
		lifecycle: lifecycle,
		log:       log,
	}
}

type StartAuctionRequest struct {
	PhoneNumber   string  `json:"phoneNumber"`
	ArtworkID     string  `json:"artworkId"`
	StartingBid   float64 `json:"startingBid"`
	MinimumPrice  float64 `json:"minimumPrice"`
	DurationHours int     `json:"durationHours"`
}

// StartAuction handles POST /auction/start.
func (h *AuctionHandler) StartAuction(c echo.Context) error {
	var req StartAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "invalid_request", Message: "invalid request body"})
	}

	result, err := h.lifecycle.StartAuction(c.Request().Context(), services.StartAuctionRequest{
		PhoneNumber:   req.PhoneNumber,
		ArtworkID:     req.ArtworkID,
		StartingBid:   req.StartingBid,
		MinimumPrice:  req.MinimumPrice,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		h.log.Warn("Auction start rejected", "artwork_id", req.ArtworkID, "error", err)
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// ListActive handles GET /auction/active.
func (h *AuctionHandler) ListActive(c echo.Context) error {
	listings, err := h.lifecycle.ListActiveAuctions(c.Request().Context())
	if err != nil {
		h.log.Error("Failed to list active auctions", "error", err)
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, listings)
}

// GetAuction handles GET /auction/:id.
func (h *AuctionHandler) GetAuction(c echo.Context) error {
	listing, err := h.lifecycle.GetAuction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, listing)
}

type CreateArtworkRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Artist      string `json:"artist"`
	ImageURL    string `json:"imageUrl"`
}

type CreateArtworkResponse struct {
	ArtworkID string `json:"artworkId"`
	Message   string `json:"message"`
}

// CreateArtwork handles POST /artwork/create.
func (h *AuctionHandler) CreateArtwork(c echo.Context) error {
	var req CreateArtworkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "invalid_request", Message: "invalid request body"})
	}

	artwork, err := h.lifecycle.CreateArtwork(c.Request().Context(), services.CreateArtworkRequest{
		PhoneNumber: req.PhoneNumber,
		Title:       req.Title,
		Description: req.Description,
		Artist:      req.Artist,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.log.Warn("Artwork creation rejected", "title", req.Title, "error", err)
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, CreateArtworkResponse{
		ArtworkID: artwork.ID,
		Message:   "artwork created successfully",
	})
}

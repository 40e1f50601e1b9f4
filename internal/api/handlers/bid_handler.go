package handlers

import (
	"net/http"

	"art-auction/internal/services"
	"art-auction/pkg/logger"

	"github.com/labstack/echo/v4"
)

type BidHandler struct {
	bids *services.BidService
	log  logger.Logger
}

func NewBidHandler(bids *services.BidService, log logger.Logger) *BidHandler {
	return &BidHandler{
		bids: bids,
		log:  log,
	}
}

type PlaceBidRequest struct {
	PhoneNumber string  `json:"phoneNumber"`
	AuctionID   string  `json:"auctionId"`
	BidAmount   float64 `json:"bidAmount"`
}

// PlaceBid handles POST /bid/place.
func (h *BidHandler) PlaceBid(c echo.Context) error {
	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "invalid_request", Message: "invalid request body"})
	}

	result, err := h.bids.PlaceBid(c.Request().Context(), services.PlaceBidRequest{
		PhoneNumber: req.PhoneNumber,
		AuctionID:   req.AuctionID,
		BidAmount:   req.BidAmount,
	})
	if err != nil {
		h.log.Warn("Bid rejected", "auction_id", req.AuctionID, "error", err)
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

// BidsForAuction handles GET /bid/auction/:id. Zero bids is a valid
// empty result, not an error.
func (h *BidHandler) BidsForAuction(c echo.Context) error {
	bids, err := h.bids.BidsForAuction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, bids)
}

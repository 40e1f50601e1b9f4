package handlers

import (
	"errors"
	"net/http"

	"art-auction/internal/domain"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the uniform error body: a stable machine-checkable
// code plus a human-readable message.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func httpError(err error) (int, ErrorResponse) {
	var status int
	var code string

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, domain.ErrBidTooLow):
		status, code = http.StatusBadRequest, "bid_too_low"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrUserNotFound):
		status, code = http.StatusNotFound, "user_not_found"
	case errors.Is(err, domain.ErrArtworkNotFound):
		status, code = http.StatusNotFound, "artwork_not_found"
	case errors.Is(err, domain.ErrAuctionNotFound):
		status, code = http.StatusNotFound, "auction_not_found"
	case errors.Is(err, domain.ErrUserExists):
		status, code = http.StatusConflict, "user_exists"
	case errors.Is(err, domain.ErrAuctionConflict):
		status, code = http.StatusConflict, "auction_conflict"
	case errors.Is(err, domain.ErrInvalidAuctionState):
		status, code = http.StatusConflict, "invalid_auction_state"
	default:
		// Transient store errors and everything unexpected; the
		// operation already rolled back, callers may retry whole.
		return http.StatusInternalServerError, ErrorResponse{
			Code:    "internal_error",
			Message: "internal error",
		}
	}

	return status, ErrorResponse{Code: code, Message: err.Error()}
}

func respondError(c echo.Context, err error) error {
	status, body := httpError(err)
	return c.JSON(status, body)
}

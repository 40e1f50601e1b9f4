package handlers

import (
	"net/http"
	"time"

	"art-auction/internal/services"
	"art-auction/pkg/logger"

	"github.com/labstack/echo/v4"
)

type AccountHandler struct {
	accounts *services.AccountService
	log      logger.Logger
}

func NewAccountHandler(accounts *services.AccountService, log logger.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		log:      log,
	}
}

type RegisterRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
}

type RegisterResponse struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

func (h *AccountHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "invalid_request", Message: "invalid request body"})
	}

	user, err := h.accounts.Register(c.Request().Context(), req.Name, req.PhoneNumber, req.Email)
	if err != nil {
		h.log.Warn("Registration failed", "phone", req.PhoneNumber, "error", err)
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, RegisterResponse{
		UserID:  user.ID,
		Message: "user registered successfully",
	})
}

type SessionRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type StartSessionResponse struct {
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *AccountHandler) StartSession(c echo.Context) error {
	var req SessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "invalid_request", Message: "invalid request body"})
	}

	session, err := h.accounts.StartSession(c.Request().Context(), req.PhoneNumber)
	if err != nil {
		h.log.Warn("Session start failed", "phone", req.PhoneNumber, "error", err)
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, StartSessionResponse{
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	})
}

func (h *AccountHandler) EndSession(c echo.Context) error {
	var req SessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Code: "invalid_request", Message: "invalid request body"})
	}

	if err := h.accounts.EndSession(c.Request().Context(), req.PhoneNumber); err != nil {
		h.log.Warn("Session end failed", "phone", req.PhoneNumber, "error", err)
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "session ended"})
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"aqi-map-backend/internal/middleware"
	"aqi-map-backend/internal/rewards"
	"aqi-map-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles user and rewards HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateUser handles POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	user, err := h.userService.CreateUser(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrMissingFields) {
			respondError(w, msgMissingFields, http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("Failed to create user")
		respondError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("user_id", user.ID).
		Msg("User created")

	respondJSON(w, user, http.StatusCreated)
}

// GetMe handles GET /api/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		h.respondUserError(w, userID, err)
		return
	}

	respondJSON(w, user, http.StatusOK)
}

// Contribute handles POST /api/users/me/contributions
func (h *UserHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	outcome, err := h.userService.Contribute(r.Context(), userID)
	if err != nil {
		h.respondUserError(w, userID, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Int("earned", outcome.Earned).
		Int("streak", outcome.Streak).
		Msg("Contribution recorded")

	respondJSON(w, outcome, http.StatusOK)
}

// Redeem handles POST /api/users/me/redemptions
func (h *UserHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req services.RedeemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	outcome, err := h.userService.Redeem(r.Context(), userID, req)
	if err != nil {
		h.respondUserError(w, userID, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("voucher", outcome.Voucher).
		Msg("Voucher redeemed")

	respondJSON(w, outcome, http.StatusOK)
}

// ListVouchers handles GET /api/vouchers
func (h *UserHandler) ListVouchers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.userService.Vouchers(), http.StatusOK)
}

func (h *UserHandler) respondUserError(w http.ResponseWriter, userID string, err error) {
	var insufficient *rewards.InsufficientPointsError
	switch {
	case errors.Is(err, services.ErrMissingFields):
		respondError(w, msgMissingFields, http.StatusBadRequest)
	case errors.Is(err, rewards.ErrAlreadyContributed):
		respondError(w, "You've already contributed today!", http.StatusConflict)
	case errors.As(err, &insufficient):
		respondError(w, fmt.Sprintf(
			"Not enough points to redeem this voucher. You need %d more points.", insufficient.Needed,
		), http.StatusConflict)
	case errors.Is(err, services.ErrUnknownVoucher):
		respondError(w, "Voucher not found", http.StatusNotFound)
	case errors.Is(err, services.ErrNotFound):
		respondError(w, msgUserNotFound, http.StatusNotFound)
	default:
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update rewards")
		respondError(w, msgInternalServer, http.StatusInternalServerError)
	}
}

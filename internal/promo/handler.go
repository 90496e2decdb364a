package promo

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ms-ordering/internal/utils"
)

type Handler struct {
	Service *Service
}

// ApplyToBill renders a bill total with a promotion applied. Display-only:
// nothing is written back to the order.
func (h *Handler) ApplyToBill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RestaurantID string  `json:"restaurant_id"`
		Code         string  `json:"code"`
		Total        float64 `json:"total"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	bill, err := h.Service.ApplyToBill(r.Context(), req.RestaurantID, req.Code, req.Total, time.Now())
	switch {
	case errors.Is(err, ErrPromoNotFound),
		errors.Is(err, ErrPromoNotStarted),
		errors.Is(err, ErrPromoExpired),
		errors.Is(err, ErrPromoExhausted):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Could not apply promotion", err.Error()))
		return
	case err != nil:
		utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse("Could not apply promotion", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("bill", bill))
}

package analytics

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/utils"
)

type Handler struct {
	Service *Service
}

func (h *Handler) RestaurantSummary(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantID")

	summary, err := h.Service.RestaurantSummary(r.Context(), restaurantID)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse("Could not compute summary", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("summary", summary))
}

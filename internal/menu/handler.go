package menu

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/models"
	"ms-ordering/internal/utils"
)

type Handler struct {
	Store *Store
}

func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var item models.MenuItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if item.RestaurantID == "" || item.Name == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Could not create menu item", "restaurant_id and name are required"))
		return
	}

	if err := h.Store.CreateMenuItem(r.Context(), &item); err != nil {
		utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse("Could not create menu item", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("menu item created", item))
}

func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantID")

	items, err := h.Store.ListByRestaurant(r.Context(), restaurantID)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse("Could not list menu", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("menu", items))
}

func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	var item models.MenuItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	item.ID = itemID

	err := h.Store.UpdateMenuItem(r.Context(), &item)
	if errors.Is(err, ErrMenuItemNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Could not update menu item", err.Error()))
		return
	}
	if err != nil {
		utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse("Could not update menu item", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("menu item updated", item))
}

func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	if err := h.Store.DeleteMenuItem(r.Context(), itemID); err != nil {
		utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse("Could not delete menu item", err.Error()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package table

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/utils"
)

type Handler struct {
	Service *Service
	BaseURL string
}

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RestaurantID string `json:"restaurant_id"`
		Number       int    `json:"number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	t, err := h.Service.CreateTable(r.Context(), req.RestaurantID, req.Number)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("Could not create table", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("table created", t))
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantID")

	tables, err := h.Service.ListTables(r.Context(), restaurantID)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse("Could not list tables", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("tables", tables))
}

// ResolveScan maps a scanned code onto its restaurant/table pair.
func (h *Handler) ResolveScan(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	t, err := h.Service.ResolveScanCode(r.Context(), code)
	if errors.Is(err, ErrTableNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("Unknown scan code", err.Error()))
		return
	}
	if err != nil {
		utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse("Could not resolve scan code", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("table", t))
}

// QRCode serves the printable QR PNG for a table.
func (h *Handler) QRCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	t, err := h.Service.ResolveScanCode(r.Context(), code)
	if errors.Is(err, ErrTableNotFound) {
		http.Error(w, "Unknown scan code", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Could not resolve scan code", http.StatusBadGateway)
		return
	}

	png, err := TableQR(*t, h.BaseURL)
	if err != nil {
		http.Error(w, "Could not render QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

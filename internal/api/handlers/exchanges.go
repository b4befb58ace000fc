package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mweber/quotesd/internal/contracts"
	"github.com/mweber/quotesd/pkg/logger"
)

// ExchangeHandler handles exchange registry API endpoints
type ExchangeHandler struct {
	exchanges contracts.ExchangeRepository
	logger    *logger.Logger
}

// NewExchangeHandler creates a new exchange handler
func NewExchangeHandler(exchanges contracts.ExchangeRepository, log *logger.Logger) *ExchangeHandler {
	return &ExchangeHandler{
		exchanges: exchanges,
		logger:    log,
	}
}

// ExchangeRequest represents a create/update exchange request
type ExchangeRequest struct {
	Name string `json:"name" validate:"required,min=2"`
}

// GetAll returns all registered exchanges
// GET /api/exchanges
func (h *ExchangeHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	exchanges, err := h.exchanges.GetAll(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list exchanges")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve exchanges")
		return
	}

	respondJSON(w, http.StatusOK, exchanges)
}

// GetOne returns a single exchange
// GET /api/exchanges/{id}
func (h *ExchangeHandler) GetOne(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid exchange ID")
		return
	}

	exchange, err := h.exchanges.GetByID(r.Context(), id)
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Exchange not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("id", id).Error("Failed to get exchange")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve exchange")
		return
	}

	respondJSON(w, http.StatusOK, exchange)
}

// Create registers an exchange by name. Registering an existing name
// returns the stored exchange unchanged.
// POST /api/exchanges
func (h *ExchangeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	exchange, err := h.exchanges.Upsert(r.Context(), &contracts.Exchange{Name: req.Name})
	if err != nil {
		h.logger.WithError(err).WithField("name", req.Name).Error("Failed to create exchange")
		respondError(w, http.StatusInternalServerError, "Failed to create exchange")
		return
	}

	respondJSON(w, http.StatusCreated, exchange)
}

// Update renames a registered exchange
// PUT /api/exchanges/{id}
func (h *ExchangeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid exchange ID")
		return
	}

	var req ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.exchanges.Update(r.Context(), &contracts.Exchange{ID: id, Name: req.Name})
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Exchange not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("id", id).Error("Failed to update exchange")
		respondError(w, http.StatusInternalServerError, "Failed to update exchange")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

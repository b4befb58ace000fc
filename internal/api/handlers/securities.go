package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mweber/quotesd/internal/contracts"
	"github.com/mweber/quotesd/pkg/logger"
)

// SecurityHandler handles security registry API endpoints
type SecurityHandler struct {
	securities contracts.SecurityRepository
	logger     *logger.Logger
}

// NewSecurityHandler creates a new security handler
func NewSecurityHandler(securities contracts.SecurityRepository, log *logger.Logger) *SecurityHandler {
	return &SecurityHandler{
		securities: securities,
		logger:     log,
	}
}

// SecurityRequest represents a create/update security request
type SecurityRequest struct {
	ISIN string `json:"isin" validate:"required,len=12"`
	NSIN string `json:"nsin" validate:"required,min=4"`
	Name string `json:"name" validate:"required,min=3"`
	Type string `json:"type" validate:"required,oneof=stock fund etf certificate"`
}

// GetAll returns all registered securities
// GET /api/securities
func (h *SecurityHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	securities, err := h.securities.GetAll(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list securities")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve securities")
		return
	}

	respondJSON(w, http.StatusOK, securities)
}

// GetOne returns a single security
// GET /api/securities/{isin}
func (h *SecurityHandler) GetOne(w http.ResponseWriter, r *http.Request) {
	isin := mux.Vars(r)["isin"]

	security, err := h.securities.GetByISIN(r.Context(), isin)
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Security not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("isin", isin).Error("Failed to get security")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve security")
		return
	}

	respondJSON(w, http.StatusOK, security)
}

// Create registers a new security
// POST /api/securities
func (h *SecurityHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SecurityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Re-registering an existing ISIN is a conflict on the create path
	if _, err := h.securities.GetByISIN(ctx, req.ISIN); err == nil {
		respondError(w, http.StatusConflict, "A security with this ISIN already exists")
		return
	} else if !errors.Is(err, contracts.ErrNotFound) {
		h.logger.WithError(err).Error("Failed to check security existence")
		respondError(w, http.StatusInternalServerError, "Failed to create security")
		return
	}

	security := &contracts.Security{
		ISIN: req.ISIN,
		NSIN: req.NSIN,
		Name: req.Name,
		Type: contracts.SecurityType(req.Type),
	}

	if err := h.securities.Upsert(ctx, security); err != nil {
		h.logger.WithError(err).WithField("isin", req.ISIN).Error("Failed to create security")
		respondError(w, http.StatusInternalServerError, "Failed to create security")
		return
	}

	respondJSON(w, http.StatusCreated, security)
}

// Update modifies a registered security
// PUT /api/securities/{isin}
func (h *SecurityHandler) Update(w http.ResponseWriter, r *http.Request) {
	isin := mux.Vars(r)["isin"]

	var req SecurityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// The path parameter wins over any ISIN in the body
	req.ISIN = isin
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	security := &contracts.Security{
		ISIN: req.ISIN,
		NSIN: req.NSIN,
		Name: req.Name,
		Type: contracts.SecurityType(req.Type),
	}

	err := h.securities.Update(r.Context(), security)
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Security not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("isin", isin).Error("Failed to update security")
		respondError(w, http.StatusInternalServerError, "Failed to update security")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

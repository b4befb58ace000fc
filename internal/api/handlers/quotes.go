package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mweber/quotesd/internal/contracts"
	"github.com/mweber/quotesd/internal/quotes"
	"github.com/mweber/quotesd/pkg/logger"
)

// QuoteHandler handles quote ingestion and retrieval endpoints
type QuoteHandler struct {
	ingest *quotes.IngestService
	store  contracts.QuoteStore
	logger *logger.Logger
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(ingest *quotes.IngestService, store contracts.QuoteStore, log *logger.Logger) *QuoteHandler {
	return &QuoteHandler{
		ingest: ingest,
		store:  store,
		logger: log,
	}
}

// QuoteItem is one dated price in an ingestion request
type QuoteItem struct {
	Date  string  `json:"date" validate:"required,datetime=2006-01-02"`
	Price float64 `json:"price" validate:"required,gt=0"`
}

// IngestRequest represents a quote ingestion request
type IngestRequest struct {
	ISIN       string      `json:"isin" validate:"required,len=12"`
	ExchangeID int64       `json:"exchange_id" validate:"required,gt=0"`
	Quotes     []QuoteItem `json:"quotes" validate:"required,min=1,dive"`
}

// IngestResponse reports how many points were applied
type IngestResponse struct {
	ISIN       string `json:"isin"`
	ExchangeID int64  `json:"exchange_id"`
	Applied    int    `json:"applied"`
}

// Ingest applies a quote batch to the store
// POST /api/quotes
func (h *QuoteHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	points := make([]contracts.QuotePoint, len(req.Quotes))
	for i, q := range req.Quotes {
		dt, _ := time.Parse("2006-01-02", q.Date) // format already validated
		points[i] = contracts.QuotePoint{
			Date:  dt,
			Price: decimal.NewFromFloat(q.Price),
		}
	}

	applied, err := h.ingest.Ingest(r.Context(), req.ISIN, req.ExchangeID, points)
	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Security or exchange not registered")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("isin", req.ISIN).Error("Failed to ingest quotes")
		respondError(w, http.StatusInternalServerError, "Failed to ingest quotes")
		return
	}

	respondJSON(w, http.StatusOK, IngestResponse{
		ISIN:       req.ISIN,
		ExchangeID: req.ExchangeID,
		Applied:    applied,
	})
}

// QuoteResponse is one dated price in a retrieval response
type QuoteResponse struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// Get returns the stored quotes of one series, optionally date-filtered
// GET /api/quotes?isin=&exchange_id=&from=&to=
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	isin := r.URL.Query().Get("isin")
	if isin == "" {
		respondError(w, http.StatusBadRequest, "isin query parameter is required")
		return
	}
	exchangeID, err := strconv.ParseInt(r.URL.Query().Get("exchange_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "exchange_id query parameter is required")
		return
	}

	key := contracts.SeriesKey{ISIN: isin, ExchangeID: exchangeID}

	// Date filters default to the full series
	from, err := h.parseDateParam(r, "from")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
		return
	}
	to, err := h.parseDateParam(r, "to")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'to' date format (expected YYYY-MM-DD)")
		return
	}

	if from.IsZero() {
		earliest, err := h.store.EarliestDate(ctx, key)
		if errors.Is(err, contracts.ErrNotFound) {
			respondJSON(w, http.StatusOK, []QuoteResponse{})
			return
		}
		if err != nil {
			h.logger.WithError(err).WithField("series", key.String()).Error("Failed to resolve series start")
			respondError(w, http.StatusInternalServerError, "Failed to retrieve quotes")
			return
		}
		from = earliest
	}
	if to.IsZero() {
		to = time.Now()
	}

	points, err := h.store.PointsInRange(ctx, key, from, to)
	if err != nil {
		h.logger.WithError(err).WithField("series", key.String()).Error("Failed to get quotes")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve quotes")
		return
	}

	result := make([]QuoteResponse, len(points))
	for i, p := range points {
		result[i] = QuoteResponse{
			Date:  p.Date.Format("2006-01-02"),
			Price: p.Price.InexactFloat64(),
		}
	}

	respondJSON(w, http.StatusOK, result)
}

// GetCounts reports the number of stored quotes per series
// GET /api/quotes/counts
func (h *QuoteHandler) GetCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.Counts(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get quote counts")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve quote counts")
		return
	}

	respondJSON(w, http.StatusOK, counts)
}

// parseDateParam reads an optional YYYY-MM-DD query parameter
func (h *QuoteHandler) parseDateParam(r *http.Request, name string) (time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", value)
}

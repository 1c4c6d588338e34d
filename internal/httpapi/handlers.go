package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-product-reviews/pkg/apperrors"
	"github.com/goliatone/go-product-reviews/pkg/reviews"
)

// ReviewService is what the handlers need from the cache-aside layer.
type ReviewService interface {
	GetAll(ctx context.Context) ([]reviews.Review, error)
	GetVisible(ctx context.Context) ([]reviews.Review, error)
	GetVisibleForProduct(ctx context.Context, productID int64) ([]reviews.Review, error)
	GetByID(ctx context.Context, id int64) (reviews.Review, error)
	Create(ctx context.Context, input *reviews.CreateInput) (reviews.Review, error)
	UpdateVisibility(ctx context.Context, id int64, patch reviews.VisibilityPatch) error
}

// ReviewHandler exposes the review operations over HTTP.
type ReviewHandler struct {
	svc    ReviewService
	logger *zap.Logger
}

// NewReviewHandler builds the handler set.
func NewReviewHandler(svc ReviewService, logger *zap.Logger) *ReviewHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewHandler{svc: svc, logger: logger}
}

// GetAll handles GET /api/reviews.
func (h *ReviewHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.GetAll(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// GetVisible handles GET /api/reviews/visible, optionally scoped to one
// product with ?productId=N.
func (h *ReviewHandler) GetVisible(w http.ResponseWriter, r *http.Request) {
	var records []reviews.Review
	var err error

	if raw := r.URL.Query().Get("productId"); raw != "" {
		productID, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			writeError(w, h.logger, apperrors.InvalidArgument("productId must be an integer"))
			return
		}
		records, err = h.svc.GetVisibleForProduct(r.Context(), productID)
	} else {
		records, err = h.svc.GetVisible(r.Context())
	}

	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// GetByID handles GET /api/reviews/{id}.
func (h *ReviewHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	record, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Create handles POST /api/reviews/create.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input reviews.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, h.logger, apperrors.InvalidArgument("the request body must be a review"))
		return
	}

	record, err := h.svc.Create(r.Context(), &input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/reviews/%d", record.ID))
	writeJSON(w, http.StatusCreated, record)
}

// UpdateVisibility handles PATCH /api/reviews/visibility/{id}.
func (h *ReviewHandler) UpdateVisibility(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var patch reviews.VisibilityPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, h.logger, apperrors.InvalidArgument("the patch document cannot be parsed"))
		return
	}

	if err := h.svc.UpdateVisibility(r.Context(), id, patch); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperrors.InvalidArgument("ids must be integers")
	}
	return id, nil
}

// Package reviews implements the product review domain: the model, the
// repository contract over the relational store, the cache-aside service
// that fronts it, and the background refresh loop keeping the collection
// cache warm.
package reviews

import (
	"encoding/json"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-product-reviews/pkg/apperrors"
)

// Review is the unit of cached and stored data. Identity is assigned by the
// repository on creation and never changes; only the visibility flag is
// mutated afterwards, through the patch operation.
type Review struct {
	bun.BaseModel `bun:"table:product_reviews,alias:pr" json:"-"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Header    string    `bun:"header,notnull" json:"header"`
	Content   string    `bun:"content,notnull" json:"content"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	ProductID int64     `bun:"product_id,notnull" json:"productId"`
	IsHidden  bool      `bun:"is_hidden,notnull,default:false" json:"isHidden"`
}

// Validate checks the field invariants of a review record.
func (r Review) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Header, validation.Required),
		validation.Field(&r.Content, validation.Required),
		validation.Field(&r.ProductID, validation.Required, validation.Min(int64(1))),
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindValidation, "invalid review")
	}
	return nil
}

// CreateInput carries the client-supplied fields of a new review. The
// hidden flag is accepted on the wire but ignored: new reviews always start
// visible, and the server assigns timestamp and id.
type CreateInput struct {
	Header    string `json:"header"`
	Content   string `json:"content"`
	ProductID int64  `json:"productId"`
	IsHidden  bool   `json:"isHidden"`
}

// Validate checks the create input before it reaches the repository.
func (in CreateInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Header, validation.Required),
		validation.Field(&in.Content, validation.Required),
		validation.Field(&in.ProductID, validation.Required, validation.Min(int64(1))),
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindValidation, "invalid review")
	}
	return nil
}

// visibilityPath is the only patchable pointer; everything else on a review
// is immutable after creation.
const visibilityPath = "/isHidden"

// PatchOp is a single JSON-patch style operation.
type PatchOp struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

// VisibilityPatch is the patch document accepted by the visibility
// endpoint. Only replace operations on the visibility pointer are honored.
type VisibilityPatch []PatchOp

// Apply mutates the candidate record in place. Unsupported ops or paths
// yield a Validation error and leave the candidate untouched thereafter.
func (p VisibilityPatch) Apply(candidate *Review) error {
	for _, op := range p {
		if op.Op != "replace" {
			return apperrors.Validation("unsupported patch op %q", op.Op)
		}
		if op.Path != visibilityPath {
			return apperrors.Validation("unsupported patch path %q", op.Path)
		}
		var hidden bool
		if err := json.Unmarshal(op.Value, &hidden); err != nil {
			return apperrors.Validation("patch value for %s must be a boolean", visibilityPath)
		}
		candidate.IsHidden = hidden
	}
	return nil
}

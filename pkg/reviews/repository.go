package reviews

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-product-reviews/pkg/apperrors"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Repository is the durable store of record for reviews. Create and Update
// register pending work; SaveChanges commits it in one transaction, after
// which created records carry their assigned ids.
type Repository interface {
	GetAll(ctx context.Context) ([]Review, error)
	GetVisible(ctx context.Context) ([]Review, error)
	// GetVisibleForProduct fails with InvalidArgument if productID < 1.
	GetVisibleForProduct(ctx context.Context, productID int64) ([]Review, error)
	// GetByID fails with InvalidArgument if id < 1 and NotFound if absent.
	GetByID(ctx context.Context, id int64) (*Review, error)
	Create(ctx context.Context, review *Review) (*Review, error)
	Update(ctx context.Context, review *Review) error
	SaveChanges(ctx context.Context) error
}

// OpenDB opens a bun handle for the configured driver. sqlite3 is the
// development and test driver; postgres is used in production.
func OpenDB(driver, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	switch driver {
	case "sqlite3":
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case "postgres":
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		sqldb.Close()
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

type pendingKind int

const (
	pendingInsert pendingKind = iota
	pendingUpdate
)

type pendingOp struct {
	kind   pendingKind
	review *Review
}

// SQLRepository implements Repository on a bun database handle.
type SQLRepository struct {
	db *bun.DB

	mu      sync.Mutex
	pending []pendingOp
}

// NewSQLRepository builds a repository over db.
func NewSQLRepository(db *bun.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// Init creates the reviews table if it does not exist.
func (r *SQLRepository) Init(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*Review)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create product_reviews table: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetAll(ctx context.Context) ([]Review, error) {
	var out []Review
	if err := r.db.NewSelect().Model(&out).Order("id ASC").Scan(ctx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "load reviews")
	}
	return out, nil
}

func (r *SQLRepository) GetVisible(ctx context.Context) ([]Review, error) {
	var out []Review
	err := r.db.NewSelect().
		Model(&out).
		Where("is_hidden = ?", false).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "load visible reviews")
	}
	return out, nil
}

func (r *SQLRepository) GetVisibleForProduct(ctx context.Context, productID int64) ([]Review, error) {
	if productID < 1 {
		return nil, apperrors.InvalidArgument("product ids cannot be less than 1")
	}

	var out []Review
	err := r.db.NewSelect().
		Model(&out).
		Where("product_id = ?", productID).
		Where("is_hidden = ?", false).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "load visible reviews for product %d", productID)
	}
	return out, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*Review, error) {
	if id < 1 {
		return nil, apperrors.InvalidArgument("ids cannot be less than 1")
	}

	review := new(Review)
	err := r.db.NewSelect().Model(review).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("a review for id %d does not exist", id)
		}
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "load review %d", id)
	}
	return review, nil
}

// Create registers review for insertion. The assigned id becomes visible on
// the same pointer once SaveChanges commits.
func (r *SQLRepository) Create(ctx context.Context, review *Review) (*Review, error) {
	if review == nil {
		return nil, apperrors.InvalidArgument("the review to create cannot be nil")
	}

	r.mu.Lock()
	r.pending = append(r.pending, pendingOp{kind: pendingInsert, review: review})
	r.mu.Unlock()
	return review, nil
}

// Update registers review as dirty; the row is written on SaveChanges.
func (r *SQLRepository) Update(ctx context.Context, review *Review) error {
	if review == nil {
		return apperrors.InvalidArgument("the review to update cannot be nil")
	}

	r.mu.Lock()
	r.pending = append(r.pending, pendingOp{kind: pendingUpdate, review: review})
	r.mu.Unlock()
	return nil
}

// SaveChanges commits pending creates and updates in a single transaction.
// The buffer is claimed under the lock before the transaction so concurrent
// callers never commit the same ops twice; on failure the claimed ops are
// put back so a retry can commit them.
func (r *SQLRepository) SaveChanges(ctx context.Context) error {
	r.mu.Lock()
	ops := r.pending
	r.pending = nil
	r.mu.Unlock()

	if len(ops) == 0 {
		return nil
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, op := range ops {
			switch op.kind {
			case pendingInsert:
				if _, err := tx.NewInsert().Model(op.review).Exec(ctx); err != nil {
					return err
				}
			case pendingUpdate:
				if _, err := tx.NewUpdate().Model(op.review).WherePK().Exec(ctx); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		r.mu.Lock()
		r.pending = append(ops, r.pending...)
		r.mu.Unlock()
		return apperrors.Wrap(err, apperrors.KindInternal, "save changes")
	}
	return nil
}

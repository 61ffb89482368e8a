package cartstore

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemRepository abstracts persistence so the service can run against a
// transaction-bound copy.
type ItemRepository interface {
	WithTx(tx *gorm.DB) ItemRepository
	ListByUser(ctx context.Context, userID uuid.UUID) ([]StoredCartItem, error)
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*StoredCartItem, error)
	FindByUserAndProduct(ctx context.Context, userID uuid.UUID, productID string) (*StoredCartItem, error)
	Create(ctx context.Context, record *StoredCartItem) (*StoredCartItem, error)
	Update(ctx context.Context, record *StoredCartItem) (*StoredCartItem, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (int64, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// Repository exposes persistence operations for stored cart items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart item repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) ItemRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListByUser returns the user's cart items in insertion order.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]StoredCartItem, error) {
	var rows []StoredCartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByIDAndUser returns a cart item restricted to the owning user.
func (r *Repository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*StoredCartItem, error) {
	var record StoredCartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByUserAndProduct returns the user's row for a product, if any.
func (r *Repository) FindByUserAndProduct(ctx context.Context, userID uuid.UUID, productID string) (*StoredCartItem, error) {
	var record StoredCartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a new StoredCartItem.
func (r *Repository) Create(ctx context.Context, record *StoredCartItem) (*StoredCartItem, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Update saves the provided cart item.
func (r *Repository) Update(ctx context.Context, record *StoredCartItem) (*StoredCartItem, error) {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes a cart item owned by the user and reports the rows affected.
func (r *Repository) Delete(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&StoredCartItem{})
	return res.RowsAffected, res.Error
}

// DeleteByUser removes every cart item owned by the user.
func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&StoredCartItem{}).Error
}

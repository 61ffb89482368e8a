package cartstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/schoolmart/schoolmart-cart/pkg/db"
	pkgerrors "github.com/schoolmart/schoolmart-cart/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddItemInput carries the payload for adding a product to a user's cart.
// Display fields are optional; when the product already has a row they are
// ignored and the stored values win.
type AddItemInput struct {
	ProductID   string
	Quantity    int
	Name        string
	Price       decimal.Decimal
	ImageURL    string
	Category    string
	RequiredFor []string
	StockLimit  int
}

// Service exposes the authoritative cart operations served over HTTP.
type Service interface {
	ListItems(ctx context.Context, userID uuid.UUID) ([]StoredCartItem, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*StoredCartItem, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*StoredCartItem, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo ItemRepository
	tx   txRunner
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo ItemRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart item repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// ListItems returns the user's cart in insertion order.
func (s *service) ListItems(ctx context.Context, userID uuid.UUID) ([]StoredCartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.ListByUser(ctx, userID)
}

// AddItem inserts a row for the product or merges quantities into the
// existing one, subject to the product's stock limit.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*StoredCartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	input.ProductID = strings.TrimSpace(input.ProductID)
	if input.ProductID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var out *StoredCartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByUserAndProduct(ctx, userID, input.ProductID)
		switch {
		case err == nil:
			next := existing.Quantity + input.Quantity
			if err := checkStockLimit(existing.StockLimit, next, existing.ProductID); err != nil {
				return err
			}
			existing.Quantity = next
			out, err = repo.Update(ctx, existing)
			return err
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := checkStockLimit(input.StockLimit, input.Quantity, input.ProductID); err != nil {
				return err
			}
			record := &StoredCartItem{
				UserID:      userID,
				ProductID:   input.ProductID,
				Name:        input.Name,
				Price:       input.Price,
				Quantity:    input.Quantity,
				ImageURL:    input.ImageURL,
				Category:    input.Category,
				RequiredFor: input.RequiredFor,
				InStock:     true,
				StockLimit:  input.StockLimit,
			}
			out, err = repo.Create(ctx, record)
			if db.IsUniqueViolation(err, "idx_cart_items_user_product") {
				// Concurrent add for the same product won the race.
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart row already exists, retry the add")
			}
			return err
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateQuantity sets the absolute quantity of an item the user owns.
func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*StoredCartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var out *StoredCartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.FindByIDAndUser(ctx, itemID, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		if err != nil {
			return err
		}
		if err := checkStockLimit(record.StockLimit, quantity, record.ProductID); err != nil {
			return err
		}
		record.Quantity = quantity
		out, err = repo.Update(ctx, record)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveItem deletes an item the user owns.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	affected, err := s.repo.Delete(ctx, itemID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

// ClearCart removes every item the user owns.
func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.DeleteByUser(ctx, userID)
}

func checkStockLimit(limit, requested int, productID string) error {
	if limit > 0 && requested > limit {
		return pkgerrors.New(pkgerrors.CodeStockLimit, "requested quantity exceeds available stock").
			WithDetails(map[string]any{
				"productId": productID,
				"limit":     limit,
				"requested": requested,
			})
	}
	return nil
}

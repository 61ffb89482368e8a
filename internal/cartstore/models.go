package cartstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// StoredCartItem is one persisted cart entry for a user. The cartstore is the
// authoritative copy; session services keep optimistic replicas of it.
type StoredCartItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_cart_items_user_product,priority:1"`
	ProductID   string          `gorm:"column:product_id;not null;uniqueIndex:idx_cart_items_user_product,priority:2"`
	Name        string          `gorm:"column:name;not null;default:''"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	Quantity    int             `gorm:"column:quantity;not null;default:1"`
	ImageURL    string          `gorm:"column:image_url;not null;default:''"`
	Category    string          `gorm:"column:category;not null;default:''"`
	RequiredFor pq.StringArray  `gorm:"column:required_for;type:text[]"`
	InStock     bool            `gorm:"column:in_stock;not null;default:true"`
	StockLimit  int             `gorm:"column:stock_limit;not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table name used by the goose migrations.
func (StoredCartItem) TableName() string {
	return "cart_items"
}

// Required reports whether the item appears on any class supply list.
func (s StoredCartItem) Required() bool {
	return len(s.RequiredFor) > 0
}

package cart

import (
	"context"

	"github.com/PrathameshGBhat/foodapp-Backend/internal/repo"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists carts and their lines.
type Repository struct {
	repo.Base
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{Base: r.Bind(tx)}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	})
}

// FindByID loads a cart with its lines in insertion order.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Cart, error) {
	var cart models.Cart
	if err := preloadLines(r.DB(ctx)).Where("id = ?", id).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Cart, error) {
	var carts []models.Cart
	if err := preloadLines(r.DB(ctx)).Order("id ASC").Find(&carts).Error; err != nil {
		return nil, err
	}
	return carts, nil
}

// Create inserts the cart row and then its lines.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := r.DB(ctx).Omit("Lines").Create(cart).Error; err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return cart, nil
	}
	for i := range cart.Lines {
		cart.Lines[i].CartID = cart.ID
	}
	if err := r.DB(ctx).Create(&cart.Lines).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// ReplaceLines rewrites every line of the cart and saves its header fields.
func (r *Repository) ReplaceLines(ctx context.Context, cart *models.Cart) error {
	tx := r.DB(ctx)
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartLine{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Cart{}).
		Where("id = ?", cart.ID).
		Updates(map[string]any{
			"restaurant_id": cart.RestaurantID,
			"total_price":   cart.TotalPrice,
			"updated_at":    cart.UpdatedAt,
		}).Error; err != nil {
		return err
	}
	if len(cart.Lines) == 0 {
		return nil
	}
	for i := range cart.Lines {
		cart.Lines[i].ID = 0
		cart.Lines[i].CartID = cart.ID
	}
	return tx.Create(&cart.Lines).Error
}

// Delete removes the cart and its lines. Deleting a missing cart is a no-op.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tx := r.DB(ctx)
	if err := tx.Where("cart_id = ?", id).Delete(&models.CartLine{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&models.Cart{}).Error
}

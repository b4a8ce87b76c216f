package cart

import (
	"context"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/db/models"
	"gorm.io/gorm"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByID(ctx context.Context, id int64) (*models.Cart, error)
	List(ctx context.Context) ([]models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	ReplaceLines(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, id int64) error
}

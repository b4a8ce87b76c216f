package orders

import (
	"context"
	"time"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/db/models"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus, updatedAt time.Time) error
	Delete(ctx context.Context, id int64) error
}

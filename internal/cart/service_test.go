package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/PrathameshGBhat/foodapp-Backend/internal/menu"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/db"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/db/models"
	pkgerrors "github.com/PrathameshGBhat/foodapp-Backend/pkg/errors"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.Exec(`
CREATE TABLE carts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  restaurant_id INTEGER NOT NULL,
  total_price TEXT NOT NULL DEFAULT '0',
  created_at DATETIME,
  updated_at DATETIME
)`).Error)
	require.NoError(t, conn.Exec(`
CREATE TABLE cart_lines (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  cart_id INTEGER NOT NULL,
  item_id INTEGER NOT NULL,
  position INTEGER NOT NULL,
  restaurant_id INTEGER NOT NULL,
  category_id INTEGER,
  name TEXT NOT NULL,
  description TEXT,
  unit_price TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  line_total TEXT NOT NULL,
  available BOOLEAN NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, item_id)
)`).Error)
	return conn
}

type fakeMenu struct {
	mu    sync.Mutex
	items map[int64]menu.Item
	fail  map[int64]error
	calls map[int64]int
}

func newFakeMenu(items ...menu.Item) *fakeMenu {
	m := &fakeMenu{items: map[int64]menu.Item{}, fail: map[int64]error{}, calls: map[int64]int{}}
	for _, item := range items {
		m.items[item.ItemID] = item
	}
	return m
}

func (m *fakeMenu) GetItem(ctx context.Context, itemID int64) (*menu.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[itemID]++
	if err, ok := m.fail[itemID]; ok {
		return nil, err
	}
	item, ok := m.items[itemID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("menu item %d not found", itemID))
	}
	return &item, nil
}

func menuItem(id, restaurantID int64, price string) menu.Item {
	return menu.Item{
		ItemID:       id,
		RestaurantID: restaurantID,
		Name:         fmt.Sprintf("item-%d", id),
		Price:        decimal.RequireFromString(price),
		Available:    true,
	}
}

func newTestService(t *testing.T, lookup menu.Lookup) (Service, *Repository) {
	t.Helper()
	conn := setupCartTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, db.Wrap(conn), lookup, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return svc, repo
}

func requireMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s got %s", want, got)
}

func requireTotalMatchesLines(t *testing.T, cart *CartDTO) {
	t.Helper()
	sum := decimal.Zero
	for _, line := range cart.Items {
		requireMoney(t, line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).String(), line.LineTotal)
		sum = sum.Add(line.LineTotal)
	}
	requireMoney(t, sum.String(), cart.TotalPrice)
}

func TestAddToCartPricesFromMenu(t *testing.T) {
	svc, _ := newTestService(t, newFakeMenu(menuItem(5, 1, "10.0")))

	cart, err := svc.AddToCart(context.Background(), nil, []ItemRequest{{ItemID: 5, Quantity: 2}})
	require.NoError(t, err)

	require.NotZero(t, cart.CartID)
	require.Len(t, cart.Items, 1)
	requireMoney(t, "20", cart.Items[0].LineTotal)
	requireMoney(t, "20", cart.TotalPrice)
	assert.Equal(t, int64(1), cart.RestaurantID)

	stored, err := svc.GetCart(context.Background(), cart.CartID)
	require.NoError(t, err)
	requireMoney(t, "20", stored.TotalPrice)
	requireTotalMatchesLines(t, stored)
}

func TestAddToCartRejectsMixedRestaurants(t *testing.T) {
	svc, _ := newTestService(t, newFakeMenu(menuItem(5, 1, "10.0"), menuItem(9, 2, "4.5")))
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, nil, []ItemRequest{{ItemID: 5, Quantity: 1}, {ItemID: 9, Quantity: 1}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Contains(t, err.Error(), "multiple restaurants")

	carts, err := svc.ListCarts(ctx)
	require.NoError(t, err)
	assert.Empty(t, carts)
}

func TestAddToCartRejectsItemWithoutRestaurant(t *testing.T) {
	svc, _ := newTestService(t, newFakeMenu(menuItem(5, 0, "10.0"), menuItem(9, 2, "4.5")))
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, nil, []ItemRequest{{ItemID: 5, Quantity: 1}, {ItemID: 9, Quantity: 1}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	carts, err := svc.ListCarts(ctx)
	require.NoError(t, err)
	assert.Empty(t, carts)
}

func TestRestaurantGuardDoesNotTreatZeroAsUnset(t *testing.T) {
	guard := guardFor(&models.Cart{})
	require.NoError(t, guard.admit(&menu.Item{ItemID: 1, RestaurantID: 3}))
	require.True(t, pkgerrors.IsCode(guard.admit(&menu.Item{ItemID: 2, RestaurantID: 0}), pkgerrors.CodeDependency))
	require.True(t, pkgerrors.IsCode(guard.admit(&menu.Item{ItemID: 4, RestaurantID: 2}), pkgerrors.CodeConflict))

	seeded := guardFor(&models.Cart{RestaurantID: 3, Lines: []models.CartLine{{ItemID: 1, RestaurantID: 3}}})
	require.True(t, pkgerrors.IsCode(seeded.admit(&menu.Item{ItemID: 4, RestaurantID: 2}), pkgerrors.CodeConflict))
}

func TestAddToCartLooksUpRepeatedItemOnce(t *testing.T) {
	lookup := newFakeMenu(menuItem(5, 1, "2.5"), menuItem(9, 1, "4"))
	svc, _ := newTestService(t, lookup)

	cart, err := svc.AddToCart(context.Background(), nil, []ItemRequest{
		{ItemID: 5, Quantity: 1},
		{ItemID: 9, Quantity: 1},
		{ItemID: 5, Quantity: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, lookup.calls[5])
	assert.Equal(t, 1, lookup.calls[9])
	require.Len(t, cart.Items, 2)
	assert.Equal(t, int64(5), cart.Items[0].ItemID)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	requireMoney(t, "11.5", cart.TotalPrice)
}

func TestAddToExistingCartFromOtherRestaurantLeavesCartUnchanged(t *testing.T) {
	svc, _ := newTestService(t, newFakeMenu(menuItem(5, 1, "10.0"), menuItem(9, 2, "4.5")))
	ctx := context.Background()

	cart, err := svc.AddToCart(ctx, nil, []ItemRequest{{ItemID: 5, Quantity: 2}})
	require.NoError(t, err)

	_, err = svc.AddToCart(ctx, &cart.CartID, []ItemRequest{{ItemID: 9, Quantity: 1}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	stored, err := svc.GetCart(ctx, cart.CartID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	requireMoney(t, "20", stored.TotalPrice)
}

func TestAddToExistingCartMergesQuantities(t *testing.T) {
	svc, _ := newTestService(t, newFakeMenu(menuItem(5, 1, "10.0"), menuItem(6, 1, "2.25")))
	ctx := context.Background()

	cart, err := svc.AddToCart(ctx, nil, []ItemRequest{{ItemID: 5, Quantity: 1}, {ItemID: 5, Quantity: 1}})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	cart, err = svc.AddToCart(ctx, &cart.CartID, []ItemRequest{{ItemID: 6, Quantity: 4}, {ItemID: 5, Quantity: 1}})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, int64(5), cart.Items[0].ItemID)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, int64(6), cart.Items[1].ItemID)
	requireMoney(t, "39", cart.TotalPrice)
	requireTotalMatchesLines(t, cart)
}

func TestAddToCartUnknownItemPersistsNothing(t *testing.T) {
	svc, _ := newTestService(t, newFakeMenu(menuItem(5, 1, "10.0")))
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, nil, []ItemRequest{{ItemID: 5, Quantity: 1}, {ItemID: 404, Quantity: 1}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	carts, err := svc.ListCarts(ctx)
	require.NoError(t, err)
	assert.Empty(t, carts)
}

func TestAddToCartUpstreamFailureIsDependencyError(t *testing.T) {
	lookup := newFakeMenu()
	lookup.fail[5] = errors.New("dial tcp: connection refused")
	svc, _ := newTestService(t, lookup)

	_, err := svc.AddToCart(context.Background(), nil, []ItemRequest{{ItemID: 5, Quantity: 1}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestAddToCartValidation(t *testing.T) {
	svc, _ := newTestService(t, newFakeMenu(menuItem(5, 1, "10.0")))
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, nil, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.AddToCart(ctx, nil, []ItemRequest{{ItemID: 5, Quantity: 0}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.AddToCart(ctx, nil, []ItemRequest{{ItemID: -1, Quantity: 1}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	missing := int64(999)
	_, err = svc.AddToCart(ctx, &missing, []ItemRequest{{ItemID: 5, Quantity: 1}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateCartRemovingLastLineDeletesCart(t *testing.T) {
	svc, _ := newTestService(t, newFakeMenu(menuItem(5, 1, "10.0")))
	ctx := context.Background()

	cart, err := svc.AddToCart(ctx, nil, []ItemRequest{{ItemID: 5, Quantity: 2}})
	require.NoError(t, err)

	updated, err := svc.UpdateCart(ctx, cart.CartID, []ItemRequest{{ItemID: 5, Quantity: 0}})
	require.NoError(t, err)
	assert.True(t, updated.Deleted)
	assert.Empty(t, updated.Items)
	requireMoney(t, "0", updated.TotalPrice)

	stored, err := svc.GetCart(ctx, cart.CartID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestUpdateCartReturnsOnlyProcessedLines(t *testing.T) {
	svc, _ := newTestService(t, newFakeMenu(menuItem(5, 1, "10.0"), menuItem(7, 1, "3.5"), menuItem(8, 1, "1.0")))
	ctx := context.Background()

	cart, err := svc.AddToCart(ctx, nil, []ItemRequest{{ItemID: 5, Quantity: 2}, {ItemID: 8, Quantity: 1}})
	require.NoError(t, err)

	updated, err := svc.UpdateCart(ctx, cart.CartID, []ItemRequest{
		{ItemID: 7, Quantity: 2},
		{ItemID: 8, Quantity: 0},
		{ItemID: 404, Quantity: 0},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "unresolvable items fail even on removal")
	assert.Nil(t, updated)

	updated, err = svc.UpdateCart(ctx, cart.CartID, []ItemRequest{{ItemID: 7, Quantity: 2}, {ItemID: 8, Quantity: 0}})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, int64(7), updated.Items[0].ItemID)
	requireMoney(t, "7", updated.Items[0].LineTotal)
	requireMoney(t, "27", updated.TotalPrice)

	stored, err := svc.GetCart(ctx, cart.CartID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, int64(5), stored.Items[0].ItemID)
	assert.Equal(t, int64(7), stored.Items[1].ItemID)
	requireTotalMatchesLines(t, stored)
}

func TestUpdateCartRepricesExistingLine(t *testing.T) {
	lookup := newFakeMenu(menuItem(5, 1, "10.0"))
	svc, _ := newTestService(t, lookup)
	ctx := context.Background()

	cart, err := svc.AddToCart(ctx, nil, []ItemRequest{{ItemID: 5, Quantity: 2}})
	require.NoError(t, err)

	lookup.mu.Lock()
	lookup.items[5] = menuItem(5, 1, "12.5")
	lookup.mu.Unlock()

	updated, err := svc.UpdateCart(ctx, cart.CartID, []ItemRequest{{ItemID: 5, Quantity: 3}})
	require.NoError(t, err)
	requireMoney(t, "37.5", updated.TotalPrice)
	requireMoney(t, "12.5", updated.Items[0].Price)
}

func TestUpdateCartRejectsMixedRestaurants(t *testing.T) {
	svc, _ := newTestService(t, newFakeMenu(menuItem(5, 1, "10.0"), menuItem(9, 2, "4.5")))
	ctx := context.Background()

	cart, err := svc.AddToCart(ctx, nil, []ItemRequest{{ItemID: 5, Quantity: 2}})
	require.NoError(t, err)

	_, err = svc.UpdateCart(ctx, cart.CartID, []ItemRequest{{ItemID: 9, Quantity: 1}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	stored, err := svc.GetCart(ctx, cart.CartID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	requireMoney(t, "20", stored.TotalPrice)
}

func TestUpdateCartMissingCart(t *testing.T) {
	lookup := newFakeMenu(menuItem(5, 1, "10.0"))
	svc, _ := newTestService(t, lookup)

	_, err := svc.UpdateCart(context.Background(), 77, []ItemRequest{{ItemID: 5, Quantity: 1}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Zero(t, lookup.calls[5])
}

func TestDeleteCartIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t, newFakeMenu(menuItem(5, 1, "10.0")))
	ctx := context.Background()

	cart, err := svc.AddToCart(ctx, nil, []ItemRequest{{ItemID: 5, Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCart(ctx, cart.CartID))
	require.NoError(t, svc.DeleteCart(ctx, cart.CartID))

	stored, err := svc.GetCart(ctx, cart.CartID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil)
	require.Error(t, err)
}

func TestSaveLinesErrorMapsDuplicateLineToConflict(t *testing.T) {
	err := saveLinesError(12, fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	err = saveLinesError(12, errors.New("disk full"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

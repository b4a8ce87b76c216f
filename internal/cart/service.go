package cart

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/PrathameshGBhat/foodapp-Backend/internal/menu"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/db"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/db/models"
	pkgerrors "github.com/PrathameshGBhat/foodapp-Backend/pkg/errors"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const maxConcurrentLookups = 8

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart aggregation.
type Service interface {
	AddToCart(ctx context.Context, cartID *int64, items []ItemRequest) (*CartDTO, error)
	UpdateCart(ctx context.Context, cartID int64, items []ItemRequest) (*CartDTO, error)
	GetCart(ctx context.Context, cartID int64) (*CartDTO, error)
	ListCarts(ctx context.Context) ([]CartDTO, error)
	DeleteCart(ctx context.Context, cartID int64) error
}

type service struct {
	repo    CartRepository
	tx      txRunner
	menu    menu.Lookup
	logg    *logger.Logger
	lookups singleflight.Group
	now     func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, lookup menu.Lookup, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if lookup == nil {
		return nil, fmt.Errorf("menu lookup required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo: repo,
		tx:   tx,
		menu: lookup,
		logg: logg,
		now:  time.Now,
	}, nil
}

// AddToCart creates a cart, or appends to an existing one when cartID is set.
// Items already in the cart have their quantity increased.
func (s *service) AddToCart(ctx context.Context, cartID *int64, items []ItemRequest) (*CartDTO, error) {
	if err := validateItems(items, false); err != nil {
		return nil, err
	}

	resolved, err := s.resolveItems(ctx, items)
	if err != nil {
		return nil, err
	}

	var result *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart := &models.Cart{}
		if cartID != nil {
			existing, err := s.findCart(ctx, repo, *cartID)
			if err != nil {
				return err
			}
			cart = existing
		}

		guard := guardFor(cart)
		index := lineIndex(cart.Lines)
		for i, req := range items {
			item := resolved[i]
			if err := guard.admit(item); err != nil {
				return err
			}
			if pos, ok := index[item.ItemID]; ok {
				line := &cart.Lines[pos]
				applyItem(line, item, line.Quantity+req.Quantity)
				continue
			}
			line := models.CartLine{Position: len(cart.Lines)}
			applyItem(&line, item, req.Quantity)
			index[item.ItemID] = len(cart.Lines)
			cart.Lines = append(cart.Lines, line)
		}

		cart.RestaurantID = guard.restaurantID
		cart.TotalPrice = sumLines(cart.Lines)
		cart.UpdatedAt = s.now().UTC()

		if cart.ID == 0 {
			created, err := repo.Create(ctx, cart)
			if err != nil {
				return saveLinesError(0, err)
			}
			result = created
			return nil
		}
		if err := repo.ReplaceLines(ctx, cart); err != nil {
			return saveLinesError(cart.ID, err)
		}
		result = cart
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"cart_id": result.ID, "restaurant_id": result.RestaurantID})
	s.logg.Info(ctx, "cart items added")
	return FromModel(result), nil
}

// UpdateCart upserts or removes lines (quantity 0) and recomputes the total
// over every remaining line. The response lists only the lines touched by
// this request; callers reconcile incrementally.
func (s *service) UpdateCart(ctx context.Context, cartID int64, items []ItemRequest) (*CartDTO, error) {
	if err := validateItems(items, true); err != nil {
		return nil, err
	}
	if _, err := s.findCart(ctx, s.repo, cartID); err != nil {
		return nil, err
	}

	resolved, err := s.resolveItems(ctx, items)
	if err != nil {
		return nil, err
	}

	response := &CartDTO{CartID: cartID}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.findCart(ctx, repo, cartID)
		if err != nil {
			return err
		}

		var processed []int64
		for i, req := range items {
			item := resolved[i]
			pos, exists := lineIndex(cart.Lines)[item.ItemID]
			if req.Quantity == 0 {
				if exists {
					cart.Lines = append(cart.Lines[:pos], cart.Lines[pos+1:]...)
				}
				continue
			}
			if exists {
				applyItem(&cart.Lines[pos], item, req.Quantity)
			} else {
				line := models.CartLine{}
				applyItem(&line, item, req.Quantity)
				cart.Lines = append(cart.Lines, line)
			}
			processed = append(processed, item.ItemID)
		}

		if len(cart.Lines) == 0 {
			if err := repo.Delete(ctx, cart.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete emptied cart")
			}
			response.TotalPrice = decimal.Zero
			response.Items = []LineDTO{}
			response.Deleted = true
			return nil
		}

		guard := restaurantGuard{}
		for i := range cart.Lines {
			if err := guard.admit(&menu.Item{ItemID: cart.Lines[i].ItemID, RestaurantID: cart.Lines[i].RestaurantID}); err != nil {
				return err
			}
		}

		renumber(cart.Lines)
		cart.RestaurantID = guard.restaurantID
		cart.TotalPrice = sumLines(cart.Lines)
		cart.UpdatedAt = s.now().UTC()
		if err := repo.ReplaceLines(ctx, cart); err != nil {
			return saveLinesError(cart.ID, err)
		}

		index := lineIndex(cart.Lines)
		seen := map[int64]struct{}{}
		response.Items = make([]LineDTO, 0, len(processed))
		for _, itemID := range processed {
			pos, ok := index[itemID]
			if _, dup := seen[itemID]; !ok || dup {
				continue
			}
			seen[itemID] = struct{}{}
			response.Items = append(response.Items, lineDTO(cart.Lines[pos]))
		}
		response.RestaurantID = cart.RestaurantID
		response.TotalPrice = cart.TotalPrice
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"cart_id": cartID, "deleted": response.Deleted})
	s.logg.Info(ctx, "cart updated")
	return response, nil
}

// GetCart returns nil when the cart does not exist.
func (s *service) GetCart(ctx context.Context, cartID int64) (*CartDTO, error) {
	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return FromModel(cart), nil
}

func (s *service) ListCarts(ctx context.Context) ([]CartDTO, error) {
	carts, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list carts")
	}
	out := make([]CartDTO, 0, len(carts))
	for i := range carts {
		out = append(out, *FromModel(&carts[i]))
	}
	return out, nil
}

func (s *service) DeleteCart(ctx context.Context, cartID int64) error {
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, cartID)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart")
	}
	s.logg.Info(s.logg.WithField(ctx, "cart_id", cartID), "cart deleted")
	return nil
}

// resolveItems looks every distinct requested item up once, concurrently.
// Results keep the request order so the first failing item decides the error.
// The singleflight group is shared by in-flight requests, so lookups run
// detached from any single caller's cancellation and rely on the menu
// client's own timeout.
func (s *service) resolveItems(ctx context.Context, items []ItemRequest) ([]*menu.Item, error) {
	var ids []int64
	byID := map[int64]*menu.Item{}
	for _, req := range items {
		if _, ok := byID[req.ItemID]; !ok {
			byID[req.ItemID] = nil
			ids = append(ids, req.ItemID)
		}
	}

	found := make([]*menu.Item, len(ids))
	errs := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(maxConcurrentLookups)
	for i, itemID := range ids {
		g.Go(func() error {
			v, err, _ := s.lookups.Do(strconv.FormatInt(itemID, 10), func() (any, error) {
				return s.menu.GetItem(context.WithoutCancel(ctx), itemID)
			})
			if err != nil {
				errs[i] = err
				return nil
			}
			found[i] = v.(*menu.Item)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err == nil {
			byID[ids[i]] = found[i]
			continue
		}
		if pkgerrors.As(err) == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("resolve menu item %d", ids[i]))
		}
		return nil, err
	}

	resolved := make([]*menu.Item, len(items))
	for i, req := range items {
		resolved[i] = byID[req.ItemID]
	}
	return resolved, nil
}

func (s *service) findCart(ctx context.Context, repo CartRepository, cartID int64) (*models.Cart, error) {
	cart, err := repo.FindByID(ctx, cartID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFound("cart", cartID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart, nil
}

func lineIndex(lines []models.CartLine) map[int64]int {
	index := make(map[int64]int, len(lines))
	for i, line := range lines {
		index[line.ItemID] = i
	}
	return index
}

// saveLinesError maps write races on cart_lines to a retryable conflict.
func saveLinesError(cartID int64, err error) error {
	if db.IsUniqueViolation(err) || db.IsContention(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart was modified concurrently, retry the request").
			WithDetails(map[string]any{"cartId": cartID})
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart lines")
}

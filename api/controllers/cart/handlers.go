package cart

import (
	"net/http"

	"github.com/PrathameshGBhat/foodapp-Backend/api/responses"
	"github.com/PrathameshGBhat/foodapp-Backend/api/validators"
	cartsvc "github.com/PrathameshGBhat/foodapp-Backend/internal/cart"
	pkgerrors "github.com/PrathameshGBhat/foodapp-Backend/pkg/errors"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/logger"
)

// AddRequest creates a cart, or appends to one when CartID is set.
type AddRequest struct {
	CartID *int64                `json:"cartId,omitempty" validate:"omitempty,gt=0"`
	Items  []cartsvc.ItemRequest `json:"items" validate:"dive"`
}

// UpdateRequest carries the absolute quantities for a cart.
type UpdateRequest struct {
	Items []cartsvc.ItemRequest `json:"items" validate:"dive"`
}

// DeleteResult acknowledges a cart deletion.
type DeleteResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	CartID  int64  `json:"cartId"`
}

// Create prices the requested items and stores them in a cart.
func Create(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload AddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AddToCart(r.Context(), payload.CartID, payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

func List(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		carts, err := svc.ListCarts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, carts)
	}
}

func Get(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID, err := validators.ParsePathID(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetCart(r.Context(), cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if record == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.NotFound("cart", cartID))
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// Update sets absolute quantities. The response lists only the lines this
// request touched, while totalPrice covers the whole cart.
func Update(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID, err := validators.ParsePathID(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload UpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateCart(r.Context(), cartID, payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

func Delete(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID, err := validators.ParsePathID(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCart(r.Context(), cartID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, DeleteResult{
			Status:  "SUCCESS",
			Message: "Cart deleted successfully",
			CartID:  cartID,
		})
	}
}

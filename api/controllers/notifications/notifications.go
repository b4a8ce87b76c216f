package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/PrathameshGBhat/foodapp-Backend/api/responses"
	"github.com/PrathameshGBhat/foodapp-Backend/api/validators"
	internalnotifications "github.com/PrathameshGBhat/foodapp-Backend/internal/notifications"
	pkgerrors "github.com/PrathameshGBhat/foodapp-Backend/pkg/errors"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/logger"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox/payloads"
)

const maxEventBytes = 1 << 20

// OrderPlacedHandler is the fan-out entry point shared with the worker.
type OrderPlacedHandler interface {
	HandleOrderPlaced(ctx context.Context, event payloads.OrderPlacedEvent) error
}

// VendorStreamer relays a vendor's live channel.
type VendorStreamer interface {
	Stream(ctx context.Context, vendorID int64, emit func(payload []byte) error) error
}

// Send runs the fan-out synchronously for a single order_placed payload.
func Send(handler OrderPlacedHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notification service unavailable"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
			return
		}

		event, _, err := internalnotifications.DecodeOrderPlaced(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order event payload"))
			return
		}
		if event.OrderID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "orderId is required"))
			return
		}
		if event.RestaurantID == nil || *event.RestaurantID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "restaurantId is required").
				WithDetails(map[string]any{"orderId": event.OrderID}))
			return
		}

		if err := handler.HandleOrderPlaced(r.Context(), event); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "forwarded"})
	}
}

// Stream holds the connection open as text/event-stream and writes every
// notification published for the vendor. Heartbeats are SSE comments.
func Stream(streamer VendorStreamer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if streamer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notification stream unavailable"))
			return
		}

		vendorID, err := validators.ParsePathID(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithVendorID(ctx, vendorID)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		emit := func(payload []byte) error {
			var err error
			if payload == nil {
				_, err = io.WriteString(w, ": heartbeat\n\n")
			} else {
				_, err = fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
			}
			if err != nil {
				return err
			}
			flusher.Flush()
			return nil
		}

		if err := streamer.Stream(ctx, vendorID, emit); err != nil && logg != nil {
			logg.Error(ctx, "notifications.stream_ended", err)
		}
	}
}

package menu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/config"
	pkgerrors "github.com/PrathameshGBhat/foodapp-Backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.UpstreamsConfig{
		MenuServiceURL: srv.URL,
		RequestTimeout: time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestGetItemDecodesMenuPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/menu/id/5", r.URL.Path)
		_, _ = w.Write([]byte(`{"itemId":5,"restaurantId":1,"categoryId":3,"name":"Margherita","description":"cheese","price":10.0,"isavailable":true}`))
	})

	item, err := client.GetItem(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), item.ItemID)
	assert.Equal(t, int64(1), item.RestaurantID)
	require.NotNil(t, item.CategoryID)
	assert.Equal(t, int64(3), *item.CategoryID)
	assert.Equal(t, "10", item.Price.String())
	assert.True(t, item.Available)
}

func TestGetItemNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetItem(context.Background(), 42)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Contains(t, err.Error(), "menu item 42 not found")
}

func TestGetItemUpstreamFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetItem(context.Background(), 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestGetItemRejectsNonPositiveID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected upstream call")
	})

	_, err := client.GetItem(context.Background(), 0)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetItemRejectsItemWithoutRestaurant(t *testing.T) {
	for name, body := range map[string]string{
		"missing": `{"itemId":5,"name":"Margherita","price":10.0,"isavailable":true}`,
		"zero":    `{"itemId":5,"restaurantId":0,"name":"Margherita","price":10.0,"isavailable":true}`,
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			item, err := client.GetItem(context.Background(), 5)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
			assert.Nil(t, item)
			assert.Contains(t, err.Error(), "menu item 5 has no restaurant")
		})
	}
}

package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/config"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	w := httptest.NewRecorder()

	HealthLive(cfg)(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dev", w.Header().Get(envHeader))
	assert.JSONEq(t, `{"data":{"status":"live"}}`, w.Body.String())
}

func TestHealthReady(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	cases := []struct {
		name   string
		deps   map[string]Pinger
		status int
	}{
		{name: "all up", deps: map[string]Pinger{"db": ok, "redis": ok}, status: http.StatusOK},
		{name: "redis down", deps: map[string]Pinger{"db": ok, "redis": down}, status: http.StatusServiceUnavailable},
		{name: "db missing", deps: map[string]Pinger{"db": nil, "redis": ok}, status: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HealthReady(cfg, nil, tc.deps)(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/PrathameshGBhat/foodapp-Backend/pkg/errors"
)

// ParsePathID reads a positive numeric chi URL parameter.
func ParsePathID(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is required").WithDetails(map[string]any{"field": key})
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a positive integer").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// QueryString returns the trimmed value of the first query key that is present.
func QueryString(r *http.Request, keys ...string) string {
	query := r.URL.Query()
	for _, key := range keys {
		if query.Has(key) {
			return strings.TrimSpace(query.Get(key))
		}
	}
	return ""
}

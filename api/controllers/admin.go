package controllers

import (
	"net/http"

	"github.com/Its-SuperNova/duchess-backend-sub004/api/responses"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/logger"
)

type ruleCacheInvalidator interface {
	Invalidate()
}

// InvalidateDeliveryRules drops the in-process delivery rule cache so the
// next fee quote re-reads the rules tables. Staff call this after editing
// delivery charge or order-value rules.
func InvalidateDeliveryRules(cache ruleCacheInvalidator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cache.Invalidate()
		if logg != nil {
			logg.Info(r.Context(), "delivery rule cache invalidated")
		}
		responses.WriteSuccess(w, map[string]string{"status": "invalidated"})
	}
}

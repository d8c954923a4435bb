package controllers

import (
	"net/http"

	"github.com/radityapw/eggmart-backend/api/responses"
	"github.com/radityapw/eggmart-backend/internal/dashboard"
	pkgerrors "github.com/radityapw/eggmart-backend/pkg/errors"
	"github.com/radityapw/eggmart-backend/pkg/logger"
)

// SellerDashboard returns the composed seller widgets.
func SellerDashboard(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		sellerID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SellerDashboard(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

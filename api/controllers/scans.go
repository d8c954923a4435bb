package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/radityapw/eggmart-backend/api/middleware"
	"github.com/radityapw/eggmart-backend/api/responses"
	"github.com/radityapw/eggmart-backend/api/validators"
	"github.com/radityapw/eggmart-backend/internal/scans"
	pkgerrors "github.com/radityapw/eggmart-backend/pkg/errors"
	"github.com/radityapw/eggmart-backend/pkg/logger"
)

// RecordScan accepts one predictor result for the authenticated seller.
func RecordScan(svc scans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scan service unavailable"))
			return
		}

		ownerID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload scans.RecordScanInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.OwnerID = ownerID

		view, err := svc.RecordScan(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return id, nil
}

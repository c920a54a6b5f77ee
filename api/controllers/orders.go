package controllers

import (
	"net/http"
	"strings"

	"github.com/atlaspay/atlaspay-backend/api/responses"
	"github.com/atlaspay/atlaspay-backend/api/validators"
	"github.com/atlaspay/atlaspay-backend/internal/orders"
	pkgerrors "github.com/atlaspay/atlaspay-backend/pkg/errors"
	"github.com/atlaspay/atlaspay-backend/pkg/logger"
	"github.com/atlaspay/atlaspay-backend/pkg/pagination"
)

// CreateOrder registers a new order for the caller. A synchronously persisted
// order answers 201; an order accepted while the register is degraded answers
// 202 with no order body.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body orders.CreateOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.UserID = userID
		if body.IdempotencyKey == nil {
			if key := strings.TrimSpace(r.Header.Get("Idempotency-Key")); key != "" {
				body.IdempotencyKey = &key
			}
		}

		result, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.Pending {
			responses.WriteSuccessStatus(w, http.StatusAccepted, result)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ListOrders returns the caller's orders newest-first with cursor pagination.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, err := svc.List(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/atlaspay/atlaspay-backend/api/middleware"
	"github.com/atlaspay/atlaspay-backend/api/responses"
	"github.com/atlaspay/atlaspay-backend/api/validators"
	"github.com/atlaspay/atlaspay-backend/internal/wallets"
	pkgerrors "github.com/atlaspay/atlaspay-backend/pkg/errors"
	"github.com/atlaspay/atlaspay-backend/pkg/logger"
)

func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return userID, nil
}

// GetWallet returns the caller's wallet, materializing a zero-balance row the
// first time it is read.
func GetWallet(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wallet, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wallet)
	}
}

// CreditWallet adds funds to the caller's wallet.
func CreditWallet(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return walletMutation(svc, logg, func(r *http.Request, svc wallets.Service, req wallets.MutationRequest) (*wallets.WalletDTO, error) {
		return svc.Credit(r.Context(), req)
	})
}

// DebitWallet removes funds from the caller's wallet.
func DebitWallet(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return walletMutation(svc, logg, func(r *http.Request, svc wallets.Service, req wallets.MutationRequest) (*wallets.WalletDTO, error) {
		return svc.Debit(r.Context(), req)
	})
}

func walletMutation(svc wallets.Service, logg *logger.Logger, apply func(*http.Request, wallets.Service, wallets.MutationRequest) (*wallets.WalletDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body wallets.MutationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.UserID = userID

		wallet, err := apply(r, svc, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wallet)
	}
}

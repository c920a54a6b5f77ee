package controllers

import (
	"net/http"

	"github.com/atlaspay/atlaspay-backend/api/responses"
	"github.com/atlaspay/atlaspay-backend/api/validators"
	"github.com/atlaspay/atlaspay-backend/internal/auth"
	pkgerrors "github.com/atlaspay/atlaspay-backend/pkg/errors"
	"github.com/atlaspay/atlaspay-backend/pkg/logger"
)

// AuthSignup creates a new account with its wallet, then signs the user in so
// the response carries a usable token pair.
func AuthSignup(reg auth.SignupService, svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reg == nil || svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.SignupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := reg.Signup(r.Context(), body); err != nil {
			if logg != nil {
				logg.Error(r.Context(), "signup failed", err)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), auth.LoginRequest{Email: body.Email, Password: body.Password})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("X-AP-Token", result.AccessToken)
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

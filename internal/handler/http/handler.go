package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/brickstemple/storefront/internal/domain"
	apperrors "github.com/brickstemple/storefront/pkg/errors"
	"github.com/brickstemple/storefront/pkg/httputil"
	"github.com/brickstemple/storefront/pkg/middleware"
	"github.com/brickstemple/storefront/pkg/validator"
)

const maxBodyBytes = 1 << 20

// principal returns the caller verified by the auth middleware.
func principal(r *http.Request) (domain.Principal, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return domain.Principal{}, false
	}
	return domain.Principal{ID: claims.UserID, Email: claims.Email, Role: claims.Role}, true
}

// requirePrincipal writes a 401 and returns false when the request carries
// no verified identity.
func requirePrincipal(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (domain.Principal, bool) {
	p, ok := principal(r)
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), logger)
		return domain.Principal{}, false
	}
	return p, true
}

// decodeBody decodes and validates the JSON body into dst, writing a 400 on
// failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return true
	}

	var valErr *validator.ValidationError
	if !errors.As(err, &valErr) && !errors.Is(err, validator.ErrEmptyBody) {
		err = apperrors.InvalidInput("invalid request body")
	}
	httputil.WriteError(w, r, err, logger)
	return false
}

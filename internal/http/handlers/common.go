package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hongminglow/smartsave/internal/http/respond"
	"github.com/hongminglow/smartsave/internal/middleware"
)

const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

// authorize writes 401 or 403 and returns false when the caller may not act for userID.
func authorize(w http.ResponseWriter, r *http.Request, userID string) bool {
	err := middleware.Authorize(r.Context(), userID)
	switch {
	case err == nil:
		return true
	case errors.Is(err, middleware.ErrForbidden):
		respond.Error(w, http.StatusForbidden, "token does not match userId")
	default:
		respond.Error(w, http.StatusUnauthorized, "authentication required")
	}
	return false
}

package handlers

import (
	"errors"
	"net/http"

	"patio-backend/internal/services"
	"patio-backend/pkg/utils"
)

// serviceError maps the service sentinel errors onto HTTP statuses:
// NotFound 404, InvalidState 422, Conflict 409, Unauthorized 401,
// anything else 500 with a generic body.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidState):
		utils.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		utils.Error(w, http.StatusUnauthorized, err.Error())
	default:
		utils.Error(w, http.StatusInternalServerError, "erro interno")
	}
}

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/fragments/pkg/fragments"
)

// The response envelope follows the service's wire format: successes are
// {"status":"ok", ...}, failures are {"status":"error","error":{code,message}}.

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Status string    `json:"status"`
	Error  errorBody `json:"error"`
}

func ok(extra map[string]interface{}) map[string]interface{} {
	body := map[string]interface{}{"status": "ok"}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

func writeError(w http.ResponseWriter, r *http.Request, code int, message string) {
	render.Status(r, code)
	render.JSON(w, r, errorResponse{
		Status: "error",
		Error:  errorBody{Code: code, Message: message},
	})
}

// renderError maps core error kinds to HTTP statuses: validation 400,
// not-found 404, unsupported type/conversion 415, malformed source data 415,
// anything else (storage failures) 500.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *fragments.ValidationError
	var conversionErr *fragments.ConversionError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, r, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, fragments.ErrFragmentNotFound):
		writeError(w, r, http.StatusNotFound, "fragment not found")
	case errors.Is(err, fragments.ErrUnsupportedType),
		errors.Is(err, fragments.ErrUnsupportedConversion):
		writeError(w, r, http.StatusUnsupportedMediaType, err.Error())
	case errors.As(err, &conversionErr):
		writeError(w, r, http.StatusUnsupportedMediaType, conversionErr.Error())
	case errors.Is(err, fragments.ErrNoOwnerIdentity):
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

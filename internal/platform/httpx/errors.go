package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// SequenceConflict maps to 409 so callers know the operation is retryable.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrUnbalanced):
		Problem(w, http.StatusUnprocessableEntity, "Unbalanced Entry", err.Error())
	case errors.Is(err, shared.ErrRefundExceedsAvailable):
		Problem(w, http.StatusUnprocessableEntity, "Refund Exceeds Available", err.Error())
	case errors.Is(err, shared.ErrInvalidTransition):
		Problem(w, http.StatusConflict, "Invalid State Transition", err.Error())
	case errors.Is(err, shared.ErrDuplicateCode):
		Problem(w, http.StatusConflict, "Duplicate Code", err.Error())
	case errors.Is(err, shared.ErrHasDependents):
		Problem(w, http.StatusConflict, "Has Dependents", err.Error())
	case errors.Is(err, shared.ErrSequenceConflict), errors.Is(err, shared.ErrSourceConflict):
		Problem(w, http.StatusConflict, "Concurrent Modification", err.Error())
	case errors.Is(err, shared.ErrProtected):
		Problem(w, http.StatusForbidden, "Protected Entity", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

package httpx

import (
	"errors"
	"net/http"

	"github.com/atlas-wms/atlas-wms/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// NotFound, Validation, Unauthorized and InvalidState are "fix your input"
// responses; Conflict is retryable and carries a Retry-After hint.
func RespondError(w http.ResponseWriter, err error) {
	switch shared.KindOf(err) {
	case shared.KindNotFound:
		Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	case shared.KindInvalidState:
		Problem(w, http.StatusConflict, "Invalid State", shared.UserSafeMessage(err))
	case shared.KindUnauthorized:
		Problem(w, http.StatusForbidden, "Forbidden", shared.UserSafeMessage(err))
	case shared.KindValidation:
		Problem(w, http.StatusUnprocessableEntity, "Validation Failed", shared.UserSafeMessage(err))
	case shared.KindConflict:
		w.Header().Set("Retry-After", "1")
		Problem(w, http.StatusServiceUnavailable, "Conflict", shared.UserSafeMessage(err))
	default:
		if errors.Is(err, shared.ErrNotFound) {
			Problem(w, http.StatusNotFound, "Not Found", "resource not found")
			return
		}
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

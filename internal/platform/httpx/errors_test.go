package httpx

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlas-wms/atlas-wms/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", shared.NotFoundError("op", "inventory", "1"), 404},
		{"invalid state", shared.InvalidStateError("op", "inventory", "1", "cannot validate"), 409},
		{"unauthorized", shared.UnauthorizedError("op", "location", "1"), 403},
		{"validation", shared.ValidationError("op", "movement", "item id required"), 422},
		{"conflict", shared.ConflictError("op", "inventory", "1", errors.New("serialization failure")), 503},
		{"unknown", errors.New("boom"), 500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondError(rr, tc.err)
			require.Equal(t, tc.status, rr.Code)
			require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var problem ProblemDetail
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
			require.Equal(t, tc.status, problem.Status)
		})
	}
}

func TestRespondErrorConflictCarriesRetryAfter(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, shared.ConflictError("op", "inventory", "1", errors.New("lock timeout")))
	require.Equal(t, "1", rr.Header().Get("Retry-After"))
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("pq: connection refused"))

	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	require.Empty(t, problem.Detail)
}

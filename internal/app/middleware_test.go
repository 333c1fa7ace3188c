package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlas-wms/atlas-wms/internal/shared"
)

func TestActorMiddlewareDecodesHeaders(t *testing.T) {
	var got shared.Actor
	var ok bool
	handler := ActorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = shared.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderActorID, "7")
	req.Header.Set(HeaderActorElevated, "true")
	req.Header.Set(HeaderActorStoragePoint, "3")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, ok)
	require.Equal(t, int64(7), got.ID)
	require.True(t, got.Elevated)
	require.Equal(t, int64(3), got.HomeStoragePointID)
}

func TestActorMiddlewarePassesThroughWithoutActor(t *testing.T) {
	var ok bool
	handler := ActorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = shared.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.False(t, ok)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderActorID, "not-a-number")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.False(t, ok)
}

func TestActorMiddlewareIgnoresInvalidStoragePoint(t *testing.T) {
	var got shared.Actor
	handler := ActorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = shared.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderActorID, "7")
	req.Header.Set(HeaderActorStoragePoint, "-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, int64(7), got.ID)
	require.Zero(t, got.HomeStoragePointID)
}

package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"race-telemetry/core/reconcile"
	"race-telemetry/core/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		switch r.URL.Path {
		case "/api/data":
			_, _ = w.Write([]byte(`{"drivers":[{"id":"1","position":1}],"session":{"track_name":"Oval"}}`))
		case "/api/car-database":
			_, _ = w.Write([]byte(`{"1":{"name":"GT3","color":"#111111"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := transport.NewHTTPFetcher(srv.URL+"/", "secret", 0)

	snap, err := f.FetchSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Drivers, 1)
	assert.Equal(t, "Oval", snap.Session.TrackName)

	catalog, err := f.FetchCatalog(context.Background())
	require.NoError(t, err)
	assert.True(t, catalog.IsFull)
	assert.Equal(t, "GT3", catalog.Cars[0].Name)
	assert.Equal(t, "1", catalog.Cars[0].ID)
}

func TestHTTPFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := transport.NewHTTPFetcher(srv.URL, "", 0).FetchSnapshot(context.Background())
	assert.ErrorIs(t, err, reconcile.ErrTransportFault)
	assert.Contains(t, err.Error(), "503")
}

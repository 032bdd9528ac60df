package schedule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, showtimesPath, r.URL.Path)
		assert.Equal(t, "ET1", r.URL.Query().Get("eventCode"))
		assert.Equal(t, "20250310", r.URL.Query().Get("dateCode"))
		assert.Equal(t, "AHD", r.URL.Query().Get("regionCode"))
		assert.Equal(t, "23.0225", r.URL.Query().Get("lat"))
		assert.Equal(t, "AHD", r.Header.Get("x-region-code"))
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPFetcherConfig{BaseURL: srv.URL, Timeout: time.Second}, logger.InitializeTestZapLogger())
	body, err := f.Fetch(context.Background(), FetchRequest{
		EventCode: "ET1", RegionCode: "AHD", Lat: "23.0225", Lon: "72.5714", DateCode: "20250310",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{}}`, string(body))
}

func TestHTTPFetcher_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPFetcherConfig{BaseURL: srv.URL, Timeout: time.Second}, logger.InitializeTestZapLogger())
	_, err := f.Fetch(context.Background(), FetchRequest{EventCode: "ET1", RegionCode: "AHD"})
	require.ErrorIs(t, err, ErrUnexpectedStatus)
}

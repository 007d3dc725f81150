package prayer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aladhanBody = `{
	"code": 200,
	"status": "OK",
	"data": {
		"timings": {
			"Fajr": "04:40 (WIB)",
			"Sunrise": "05:55 (WIB)",
			"Dhuhr": "12:01 (WIB)",
			"Asr": "15:14 (WIB)",
			"Sunset": "18:05 (WIB)",
			"Maghrib": "18:05 (WIB)",
			"Isha": "19:14 (WIB)",
			"Imsak": "04:30 (WIB)",
			"Midnight": "00:03 (WIB)"
		}
	}
}`

func TestTimingsParsesAndStripsAnnotations(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(aladhanBody))
	}))
	defer srv.Close()

	client := NewAladhanClient(srv.URL, 20, 600, nil)
	date := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	s, err := client.Timings(context.Background(), -6.2088, 106.8456, date)
	require.NoError(t, err)

	assert.Equal(t, "/v1/timings/10-03-2026", gotPath)
	assert.Contains(t, gotQuery, "latitude=-6.2088")
	assert.Contains(t, gotQuery, "longitude=106.8456")
	assert.Contains(t, gotQuery, "method=20")

	assert.Equal(t, Schedule{
		Imsak:   "04:30",
		Subuh:   "04:40",
		Terbit:  "05:55",
		Dzuhur:  "12:01",
		Ashar:   "15:14",
		Maghrib: "18:05",
		Isya:    "19:14",
	}, s)
}

func TestTimingsHTTPErrorIsScheduleFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewAladhanClient(srv.URL, 20, 600, nil)
	_, err := client.Timings(context.Background(), -6.2, 106.8, time.Now())
	assert.ErrorIs(t, err, ErrScheduleFetch)
}

func TestTimingsAPIErrorCodeIsScheduleFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": 400, "status": "Bad Request", "data": "invalid"}`))
	}))
	defer srv.Close()

	client := NewAladhanClient(srv.URL, 20, 600, nil)
	_, err := client.Timings(context.Background(), -6.2, 106.8, time.Now())
	assert.ErrorIs(t, err, ErrScheduleFetch)
}

func TestCleanTime(t *testing.T) {
	assert.Equal(t, "04:30", CleanTime("04:30 (WIB)"))
	assert.Equal(t, "04:30", CleanTime("04:30 (+07)"))
	assert.Equal(t, "04:30", CleanTime("04:30"))
}

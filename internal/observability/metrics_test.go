// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFetch(t *testing.T) {
	t.Run("outcomes are counted per resource", func(t *testing.T) {
		before := testutil.ToFloat64(FetchTotal.WithLabelValues("timetable", OutcomeTransport))
		RecordFetch("timetable", OutcomeTransport, time.Millisecond*20)
		after := testutil.ToFloat64(FetchTotal.WithLabelValues("timetable", OutcomeTransport))
		if after-before != 1 {
			t.Errorf("expected counter to increase by 1, got %f", after-before)
		}
	})
	t.Run("stale results are counted", func(t *testing.T) {
		before := testutil.ToFloat64(FetchTotal.WithLabelValues("weather", OutcomeStale))
		RecordFetch("weather", OutcomeStale, 0)
		if got := testutil.ToFloat64(FetchTotal.WithLabelValues("weather", OutcomeStale)); got-before != 1 {
			t.Errorf("expected stale counter to increase by 1, got %f", got-before)
		}
	})
}

func TestRecordSkippedTick(t *testing.T) {
	before := testutil.ToFloat64(TicksSkippedTotal.WithLabelValues("bus_refresh", SkipOffline))
	RecordSkippedTick("bus_refresh", SkipOffline)
	if got := testutil.ToFloat64(TicksSkippedTotal.WithLabelValues("bus_refresh", SkipOffline)); got-before != 1 {
		t.Errorf("expected skipped counter to increase by 1, got %f", got-before)
	}
}

func TestSetOnline(t *testing.T) {
	SetOnline(true)
	if got := testutil.ToFloat64(Online); got != 1 {
		t.Errorf("expected online gauge to be 1, got %f", got)
	}
	SetOnline(false)
	if got := testutil.ToFloat64(Online); got != 0 {
		t.Errorf("expected online gauge to be 0, got %f", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	RecordFetch("timetable", OutcomeSuccess, time.Millisecond)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "fetchTotal") {
		t.Error("expected metrics output to contain fetchTotal")
	}
}

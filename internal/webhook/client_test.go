package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const feedPayload = `[
  {
    "timestamp": "2025-06-18T14:30:00.000000-07:00",
    "data": {
      "SetOfficerName": "Joseph Wright",
      "OpenerName": "Dana Cole",
      "Leadsales": "yes",
      "Leadsource": "Radio",
      "Paymentamount": "$1,250.00",
      "InitialPayment": "$300.00",
      "CaseID": "27594"
    }
  },
  {
    "timestamp": "2025-06-18T15:05:12.123456-07:00",
    "data": {
      "SetOfficerName": "Maria Lopez",
      "OpenerName": "Sam Reed",
      "Leadsales": "no",
      "Leadsource": "Web",
      "Paymentamount": "$800.00",
      "InitialPayment": "$0",
      "CaseID": "27601"
    }
  }
]`

func newFeedServer(t *testing.T, hits *int32, failFirst int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(hits, 1)
		if n <= failFirst {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(feedPayload))
	}))
}

func TestFetchParsesFeed(t *testing.T) {
	var hits int32
	server := newFeedServer(t, &hits, 0)
	defer server.Close()

	client := NewClient(Options{URL: server.URL, RetryDelay: time.Millisecond})

	events, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Data.SetOfficerName != "Joseph Wright" {
		t.Errorf("expected officer Joseph Wright, got %s", events[0].Data.SetOfficerName)
	}
	if events[0].Data.CaseID != "27594" {
		t.Errorf("expected case 27594, got %s", events[0].Data.CaseID)
	}
	if events[1].Data.Paymentamount != "$800.00" {
		t.Errorf("expected payment $800.00, got %s", events[1].Data.Paymentamount)
	}
}

func TestFetchServesCacheWithinWindow(t *testing.T) {
	var hits int32
	server := newFeedServer(t, &hits, 0)
	defer server.Close()

	client := NewClient(Options{URL: server.URL, CacheTTL: time.Hour, RetryDelay: time.Millisecond})

	if _, err := client.Fetch(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := client.Fetch(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected a single upstream call, got %d", got)
	}
}

func TestFetchRetriesUntilSuccess(t *testing.T) {
	var hits int32
	server := newFeedServer(t, &hits, 2)
	defer server.Close()

	client := NewClient(Options{URL: server.URL, MaxRetries: 3, RetryDelay: time.Millisecond})

	events, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events, got %d", len(events))
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("expected 3 upstream calls, got %d", got)
	}
}

func TestFetchFallsBackToStaleCache(t *testing.T) {
	var hits int32
	server := newFeedServer(t, &hits, 0)

	client := NewClient(Options{URL: server.URL, CacheTTL: time.Nanosecond, MaxRetries: 3, RetryDelay: time.Millisecond})

	if _, err := client.Fetch(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	server.Close()

	events, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("expected stale cache, got error %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 cached events, got %d", len(events))
	}
}

func TestFetchErrorsWithoutCache(t *testing.T) {
	var hits int32
	server := newFeedServer(t, &hits, 100)
	defer server.Close()

	client := NewClient(Options{URL: server.URL, MaxRetries: 3, RetryDelay: time.Millisecond})

	if _, err := client.Fetch(context.Background()); err == nil {
		t.Errorf("expected an error when every attempt fails and nothing is cached")
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("expected 3 upstream calls, got %d", got)
	}
}

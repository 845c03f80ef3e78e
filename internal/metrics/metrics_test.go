package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRoundTripper_RecordsDurationAndCount(t *testing.T) {
	c, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{Transport: RoundTripper(c, nil)}
	for _, path := range []string{"/ok", "/missing"} {
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		_ = resp.Body.Close()
	}

	if v := testutil.ToFloat64(c.transportRequests.WithLabelValues("GET", "200")); v != 1 {
		t.Errorf("requests{200} = %f, want 1", v)
	}
	if v := testutil.ToFloat64(c.transportRequests.WithLabelValues("GET", "404")); v != 1 {
		t.Errorf("requests{404} = %f, want 1", v)
	}
	if testutil.CollectAndCount(c.transportDuration) == 0 {
		t.Error("expected duration observations")
	}
}

func TestRoundTripper_TransportFailure(t *testing.T) {
	c, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	failing := roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	req := httptest.NewRequest(http.MethodPut, "http://kg.invalid/v0/organizations/x", http.NoBody)
	if _, err := RoundTripper(c, failing).RoundTrip(req); err == nil {
		t.Fatal("expected error")
	}
	if v := testutil.ToFloat64(c.transportRequests.WithLabelValues("PUT", "error")); v != 1 {
		t.Errorf("requests{error} = %f, want 1", v)
	}
}

func TestNew_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New(reg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := New(reg)
	if err != nil {
		t.Fatalf("second registration: %v", err)
	}
	first.UploadOutcome("instance", "created")
	second.UploadOutcome("instance", "created")
	if v := testutil.ToFloat64(first.uploadOutcomes.WithLabelValues("instance", "created")); v != 2 {
		t.Errorf("outcomes = %f, want 2 (shared collector)", v)
	}
}

func TestNilCollectors(t *testing.T) {
	var c *Collectors
	c.ObserveRequest("GET", 200, time.Second)
	c.ResolverLookup(LookupHit)
	c.UploadOutcome("schema", "created")
	c.ObserveOperation("read", time.Second, nil)
}

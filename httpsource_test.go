package mosaicc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/neilotoole/slogt"
)

func frameHandler(t *testing.T, p *Payload) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/frame" {
			http.NotFound(w, r)
			return
		}

		h := w.Header()
		h.Set("X-Frame-Width", strconv.Itoa(p.Width))
		h.Set("X-Frame-Height", strconv.Itoa(p.Height))
		h.Set("X-Frame-Count", strconv.Itoa(p.FrameCount))
		h.Set("X-Frame-Delay-Ms", strconv.Itoa(int(p.FrameDelay/time.Millisecond)))
		h.Set("X-Dwell-Secs", strconv.Itoa(int(p.Dwell/time.Second)))
		h.Set("X-Brightness", strconv.Itoa(int(p.Brightness)))
		h.Set("X-App-Name", p.AppName)
		w.Write(p.Pixels)
	}
}

func TestHTTPSourceFetch(t *testing.T) {
	want := testPayload(8, 4, 2, 80*time.Millisecond, 15*time.Second)

	var gotDisplay string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDisplay = r.URL.Query().Get("display")
		frameHandler(t, want)(w, r)
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPSourceOpts{ServerURL: srv.URL, Logger: slogt.New(t)})

	got, err := src.Fetch(context.Background(), FrameRequest{DisplayID: "kitchen"})
	if err != nil {
		t.Fatal("fetch failed:", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	if gotDisplay != "kitchen" {
		t.Errorf("display query = %q, want %q", gotDisplay, "kitchen")
	}
}

func TestHTTPSourceFetchDefaults(t *testing.T) {
	pixels := sequentialBytes(64 * 32 * 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pixels)
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPSourceOpts{ServerURL: srv.URL, Logger: slogt.New(t)})

	got, err := src.Fetch(context.Background(), FrameRequest{})
	if err != nil {
		t.Fatal("fetch failed:", err)
	}

	want := &Payload{
		Width:      64,
		Height:     32,
		FrameCount: 1,
		FrameDelay: 100 * time.Millisecond,
		Dwell:      10 * time.Second,
		Brightness: 200,
		AppName:    "unknown",
		Pixels:     pixels,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("defaulted payload mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTPSourceFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPSourceOpts{ServerURL: srv.URL, Logger: slogt.New(t)})

	_, err := src.Fetch(context.Background(), FrameRequest{})
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("got %T, want *FetchError: %v", err, err)
	}
	if fetchErr.Category != FaultConnection {
		t.Errorf("category = %v, want %v", fetchErr.Category, FaultConnection)
	}
	if fetchErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", fetchErr.Status, http.StatusInternalServerError)
	}
}

func TestHTTPSourceFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPSourceOpts{
		ServerURL:    srv.URL,
		FetchTimeout: 50 * time.Millisecond,
		Logger:       slogt.New(t),
	})

	_, err := src.Fetch(context.Background(), FrameRequest{})
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("got %T, want *FetchError: %v", err, err)
	}
	if fetchErr.Category != FaultTimeout {
		t.Errorf("category = %v, want %v", fetchErr.Category, FaultTimeout)
	}
}

func TestHTTPSourceFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	src := NewHTTPSource(HTTPSourceOpts{ServerURL: srv.URL, Logger: slogt.New(t)})

	_, err := src.Fetch(context.Background(), FrameRequest{})
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("got %T, want *FetchError: %v", err, err)
	}
	if fetchErr.Category != FaultConnection {
		t.Errorf("category = %v, want %v", fetchErr.Category, FaultConnection)
	}
}

func TestHTTPSourceConnect(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" {
			http.NotFound(w, r)
			return
		}
		if !healthy {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPSourceOpts{ServerURL: srv.URL, Logger: slogt.New(t)})

	if err := src.Connect(context.Background()); err != nil {
		t.Fatal("connect against a healthy server failed:", err)
	}
	if !src.HealthCheck(context.Background()) {
		t.Error("health check against a healthy server failed")
	}

	healthy = false
	err := src.Connect(context.Background())
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("got %T, want *FetchError: %v", err, err)
	}
	if fetchErr.Category != FaultConnection {
		t.Errorf("category = %v, want %v", fetchErr.Category, FaultConnection)
	}
}

func TestHTTPSourceRegister(t *testing.T) {
	var got DisplayInfo
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/displays" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPSourceOpts{ServerURL: srv.URL, Logger: slogt.New(t)})

	want := DisplayInfo{
		ID:         "kitchen",
		Name:       "Kitchen Matrix",
		Width:      64,
		Height:     32,
		ClientType: "mosaicc",
	}
	if err := src.Register(context.Background(), want); err != nil {
		t.Fatal("register failed:", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("registered info mismatch (-want +got):\n%s", diff)
	}
}

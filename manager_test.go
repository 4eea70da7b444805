package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewManagerDefaults(t *testing.T) {
	m := NewManager(NewPodClient("k"))
	if m.Concurrency != 5 {
		t.Errorf("Concurrency = %d, want 5", m.Concurrency)
	}
	if m.Timeout != time.Minute {
		t.Errorf("Timeout = %v, want 1m", m.Timeout)
	}
}

func TestNewManagerOptions(t *testing.T) {
	m := NewManager(NewPodClient("k"), WithConcurrency(2), WithTimeout(10*time.Second))
	if m.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", m.Concurrency)
	}
	if m.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", m.Timeout)
	}
}

func TestNewManagerConcurrencyFloor(t *testing.T) {
	m := NewManager(NewPodClient("k"), WithConcurrency(0))
	if m.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want floor of 1", m.Concurrency)
	}
}

func TestManagerEmptyPodList(t *testing.T) {
	m := NewManager(NewPodClient("k"))
	if err := m.Stop(context.Background()); err != nil {
		t.Errorf("Stop with no pods = %v, want nil", err)
	}
}

func TestManagerBoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		_, _ = w.Write([]byte(`{"data": {"podStop": {"id": "x"}}}`))
	}))
	defer srv.Close()

	client := NewPodClient("test-key", WithPodAPIURL(srv.URL))
	m := NewManager(client, WithConcurrency(2))

	pods := []string{"a", "b", "c", "d", "e", "f"}
	if err := m.Stop(context.Background(), pods...); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrent requests = %d, want <= 2", got)
	}
}

func TestManagerAggregatesErrors(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		fail := calls%2 == 0
		mu.Unlock()
		if fail {
			_, _ = w.Write([]byte(`{"errors": [{"message": "boom"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data": {"podStart": {"id": "x"}}}`))
	}))
	defer srv.Close()

	client := NewPodClient("test-key", WithPodAPIURL(srv.URL))
	m := NewManager(client, WithConcurrency(1))

	err := m.Start(context.Background(), "a", "b", "c", "d")
	if err == nil {
		t.Fatal("Start succeeded, want aggregated errors")
	}
	merr, ok := err.(*MultiError)
	if !ok {
		t.Fatalf("error type = %T, want *MultiError", err)
	}
	if len(merr.Errors) != 2 {
		t.Errorf("errors = %d, want 2", len(merr.Errors))
	}
}

func TestManagerInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"pod": {"id": "abc", "name": "pod-abc", "runtime": {"ports": []}}}}`))
	}))
	defer srv.Close()

	client := NewPodClient("test-key", WithPodAPIURL(srv.URL))
	m := NewManager(client)

	infos, err := m.Info(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Info returned error: %v", err)
	}
	if len(infos) != 1 || !infos["abc"].Running {
		t.Errorf("infos = %+v, want one running pod", infos)
	}
}

package api

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/marmos91/assetstream/internal/bytesize"
	"github.com/marmos91/assetstream/pkg/executor"
	"github.com/marmos91/assetstream/pkg/library"
	"github.com/marmos91/assetstream/pkg/registry"
	"github.com/marmos91/assetstream/pkg/stream"
)

type nopDispatcher struct{}

type nopHandle struct{}

func (nopHandle) ID() string                { return "0" }
func (nopHandle) Priority() stream.Priority { return stream.PriorityDefault }
func (nopHandle) Loaded() bool              { return false }

func (nopDispatcher) RequestLoad(stream.LoadRequest, func(error)) stream.Handle { return nopHandle{} }
func (nopDispatcher) ReleaseHandle(stream.Handle)                              {}

type stubLoader struct{}

func (stubLoader) Pending() int                  { return 0 }
func (stubLoader) Resident() int                 { return 0 }
func (stubLoader) ResidentBytes() int            { return 0 }
func (stubLoader) LastError() (time.Time, error) { return time.Time{}, nil }

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	coord := executor.NewCoordinator()
	t.Cleanup(func() { _ = coord.Stop(context.Background()) })
	return registry.New(library.Options{Dispatcher: nopDispatcher{}, Coordinator: coord})
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find a free port: %v", err)
	}
	defer func() { _ = ln.Close() }()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestNewServer_AppliesDefaults(t *testing.T) {
	s := NewServer(APIConfig{}, nil, nil)

	if s.Port() != 8080 {
		t.Errorf("Expected default port 8080, got %d", s.Port())
	}
	if s.config.ReadTimeout != 10*time.Second {
		t.Errorf("Expected read timeout 10s, got %v", s.config.ReadTimeout)
	}
	if s.config.MaxBodySize != 16*bytesize.MiB {
		t.Errorf("Expected max body 16MiB, got %v", s.config.MaxBodySize)
	}
}

func TestServer_StartAndStop(t *testing.T) {
	port := freePort(t)
	s := NewServer(APIConfig{Port: port}, newRegistry(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	url := "http://127.0.0.1:" + strconv.Itoa(port) + "/health"
	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		cancel()
		t.Fatalf("Server never became reachable: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if s.Port() != port {
		t.Errorf("Expected bound port %d, got %d", port, s.Port())
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not stop")
	}

	// Stop after shutdown is a no-op.
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Expected nil from second Stop, got %v", err)
	}
}

func TestRouter_Routes(t *testing.T) {
	h := NewServer(APIConfig{}, newRegistry(t), stubLoader{}).Handler()

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{"GET", "/", "", http.StatusTemporaryRedirect},
		{"GET", "/health/ready", "", http.StatusOK},
		{"GET", "/health/loader", "", http.StatusOK},
		{"GET", "/api/v1/libraries", "", http.StatusOK},
		{"GET", "/api/v1/libraries/ghost", "", http.StatusNotFound},
		{"POST", "/api/v1/libraries/weapons", `{"items":[{"unique_id":"a","resources":[{"id":"r"}],"descriptors":{"A":1}}]}`, http.StatusCreated},
		{"POST", "/api/v1/libraries/weapons/sort", `{"order":["A"]}`, http.StatusOK},
		{"DELETE", "/api/v1/libraries/weapons", "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestRouter_NoRegistryOmitsLibraries(t *testing.T) {
	h := NewRouter(nil, nil, APIConfig{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/libraries", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

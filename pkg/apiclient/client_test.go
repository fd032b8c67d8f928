package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/assetstream/pkg/api"
	"github.com/marmos91/assetstream/pkg/executor"
	"github.com/marmos91/assetstream/pkg/library"
	"github.com/marmos91/assetstream/pkg/registry"
	"github.com/marmos91/assetstream/pkg/stream"
)

func TestNew(t *testing.T) {
	client := New("http://localhost:8080/")
	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:8080", client.BaseURL())

	short := client.WithTimeout(time.Second)
	assert.Equal(t, time.Second, short.httpClient.Timeout)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

func TestDo_Headers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	}))
	defer server.Close()

	var out map[string]string
	require.NoError(t, New(server.URL).get(context.Background(), "/x", &out))
	assert.Equal(t, "ok", out["message"])
}

func TestDo_ProblemError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"type":"about:blank","title":"Conflict","status":409,"detail":"library: superseded"}`))
	}))
	defer server.Close()

	err := New(server.URL).get(context.Background(), "/x", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.True(t, apiErr.IsConflict())
	assert.Equal(t, "Conflict: library: superseded", apiErr.Error())
}

func TestDo_PlainError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "404 page not found", http.StatusNotFound)
	}))
	defer server.Close()

	err := New(server.URL).get(context.Background(), "/x", nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "Not Found: 404 page not found", apiErr.Error())
}

// ============================================================================
// Against the real router
// ============================================================================

type nopHandle struct{}

func (nopHandle) ID() string                { return "0" }
func (nopHandle) Priority() stream.Priority { return stream.PriorityDefault }
func (nopHandle) Loaded() bool              { return false }

type nopDispatcher struct{}

func (nopDispatcher) RequestLoad(stream.LoadRequest, func(error)) stream.Handle { return nopHandle{} }
func (nopDispatcher) ReleaseHandle(stream.Handle)                              {}

type stubLoader struct{}

func (stubLoader) Pending() int                  { return 1 }
func (stubLoader) Resident() int                 { return 2 }
func (stubLoader) ResidentBytes() int            { return 64 }
func (stubLoader) LastError() (time.Time, error) { return time.Time{}, nil }

func newServer(t *testing.T, reg *registry.Registry) *Client {
	t.Helper()
	srv := httptest.NewServer(api.NewServer(api.APIConfig{}, reg, stubLoader{}).Handler())
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	coord := executor.NewCoordinator()
	t.Cleanup(func() { _ = coord.Stop(context.Background()) })
	return registry.New(library.Options{Dispatcher: nopDispatcher{}, Coordinator: coord})
}

const catalogJSON = `{"items":[
	{"unique_id":"sword","resources":[{"id":"meshes/sword"}],"descriptors":{"blade":1}},
	{"unique_id":"axe","resources":[{"id":"meshes/axe"}],"descriptors":{"blade":2}},
	{"unique_id":"bow","resources":[{"id":"meshes/bow"}],"descriptors":{"ranged":1}}
]}`

func TestLibraries_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newServer(t, newRegistry(t))

	st, err := client.RegisterLibrary(ctx, "weapons", []byte(catalogJSON))
	require.NoError(t, err)
	assert.Equal(t, "weapons", st.Name)
	assert.Equal(t, 3, st.Items)

	list, err := client.ListLibraries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	resp, err := client.Sort(ctx, "weapons", SortRequest{Order: []string{"blade"}, Descending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"axe", "sword"}, resp.IDs)

	ids, err := client.SortedIDs(ctx, "weapons", time.Second)
	require.NoError(t, err)
	assert.Equal(t, resp.Version, ids.Version)
	assert.Equal(t, []string{"axe", "sword"}, ids.IDs)

	st, err = client.SetBufferTarget(ctx, "weapons", BufferTarget{Kind: "unique_id", UniqueID: "sword"})
	require.NoError(t, err)
	require.NotNil(t, st.Target)
	assert.Equal(t, 1, st.Target.Start)
	assert.Equal(t, "range", st.Target.Mode)
	assert.Equal(t, 1, st.Requested)

	require.NoError(t, client.RemoveLibrary(ctx, "weapons"))

	_, err = client.GetLibrary(ctx, "weapons")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsNotFound())
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(nil))
}

func TestLibraries_ValidationError(t *testing.T) {
	client := newServer(t, newRegistry(t))

	_, err := client.RegisterLibrary(context.Background(), "weapons", []byte(`{"items":[]}`))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsValidationError())
}

func TestHealth(t *testing.T) {
	ctx := context.Background()

	client := newServer(t, newRegistry(t))
	require.NoError(t, client.Ready(ctx))

	loader, err := client.Loader(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, loader.Pending)
	assert.Equal(t, 2, loader.Resident)
	assert.Equal(t, 64, loader.ResidentBytes)
	assert.Empty(t, loader.LastError)

	unready := newServer(t, nil)
	err = unready.Ready(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry not initialized")
}

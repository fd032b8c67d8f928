package apiclient

import (
	"context"
	"net/url"
	"time"
)

// Window is a resolved buffer target as reported in a library status.
type Window struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Margin int    `json:"margin"`
	Mode   string `json:"mode"`
}

// LibraryStatus is the state of one library.
type LibraryStatus struct {
	Name     string `json:"name"`
	Version  uint64 `json:"version"`
	Items    int    `json:"items"`
	Filtered int    `json:"filtered"`
	Sorted   int    `json:"sorted"`

	Requested int `json:"requested"`
	Loaded    int `json:"loaded"`
	High      int `json:"high"`
	InFlight  int `json:"in_flight"`

	Target       *Window `json:"target,omitempty"`
	Commits      uint64  `json:"commits"`
	Discards     uint64  `json:"discards"`
	FilterRuns   uint64  `json:"filter_runs"`
	FilterReuses uint64  `json:"filter_reuses"`
	Closed       bool    `json:"closed"`
}

// SortRequest asks for a filter and sort.
type SortRequest struct {
	MustHave   []string `json:"must_have,omitempty"`
	MustNot    []string `json:"must_not,omitempty"`
	Order      []string `json:"order"`
	Descending bool     `json:"descending,omitempty"`
	Async      bool     `json:"async,omitempty"`
}

// SortResponse reports an accepted sort. IDs is empty for async sorts.
type SortResponse struct {
	Library string   `json:"library"`
	Version uint64   `json:"version"`
	Async   bool     `json:"async"`
	IDs     []string `json:"ids,omitempty"`
}

// IDsResponse is the committed order of a library.
type IDsResponse struct {
	Library string   `json:"library"`
	Version uint64   `json:"version"`
	IDs     []string `json:"ids"`
}

// BufferTarget selects the resident window. Only the fields relevant to
// Kind are read by the server.
type BufferTarget struct {
	Kind string `json:"kind"`

	Index    int    `json:"index,omitempty"`
	UniqueID string `json:"unique_id,omitempty"`
	Extent   int    `json:"extent,omitempty"`
	Margin   int    `json:"margin,omitempty"`

	Page        int `json:"page,omitempty"`
	PageSize    int `json:"page_size,omitempty"`
	BufferPages int `json:"buffer_pages,omitempty"`
}

func libraryPath(name string) string {
	return "/api/v1/libraries/" + url.PathEscape(name)
}

// ListLibraries returns the status of every registered library.
func (c *Client) ListLibraries(ctx context.Context) ([]LibraryStatus, error) {
	var out []LibraryStatus
	if err := c.get(ctx, "/api/v1/libraries", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLibrary returns the status of one library.
func (c *Client) GetLibrary(ctx context.Context, name string) (*LibraryStatus, error) {
	var st LibraryStatus
	if err := c.get(ctx, libraryPath(name), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// RegisterLibrary uploads a JSON catalog document, replacing any library
// with the same name.
func (c *Client) RegisterLibrary(ctx context.Context, name string, catalogJSON []byte) (*LibraryStatus, error) {
	var st LibraryStatus
	if err := c.post(ctx, libraryPath(name), catalogJSON, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// RemoveLibrary unregisters a library and releases everything it loaded.
func (c *Client) RemoveLibrary(ctx context.Context, name string) error {
	return c.delete(ctx, libraryPath(name))
}

// Sort runs a filter and sort on a library.
func (c *Client) Sort(ctx context.Context, name string, req SortRequest) (*SortResponse, error) {
	var resp SortResponse
	if err := c.post(ctx, libraryPath(name)+"/sort", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SortedIDs returns the committed order, waiting up to wait for in-flight
// sorts. A zero wait uses the server default.
func (c *Client) SortedIDs(ctx context.Context, name string, wait time.Duration) (*IDsResponse, error) {
	path := libraryPath(name) + "/ids"
	if wait > 0 {
		path += "?wait=" + url.QueryEscape(wait.String())
	}
	var resp IDsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetBufferTarget moves a library's resident window.
func (c *Client) SetBufferTarget(ctx context.Context, name string, target BufferTarget) (*LibraryStatus, error) {
	var st LibraryStatus
	if err := c.put(ctx, libraryPath(name)+"/buffer", target, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/marmos91/assetstream/internal/logger"
	"github.com/marmos91/assetstream/pkg/catalog"
	"github.com/marmos91/assetstream/pkg/catalogfile"
	"github.com/marmos91/assetstream/pkg/filter"
	"github.com/marmos91/assetstream/pkg/library"
	"github.com/marmos91/assetstream/pkg/registry"
)

// DefaultIDsWait bounds how long GET .../ids waits for in-flight sorts.
const DefaultIDsWait = 5 * time.Second

// LibraryHandler exposes the registry over HTTP.
type LibraryHandler struct {
	registry    *registry.Registry
	maxBodySize int64
	validate    *validator.Validate
}

// NewLibraryHandler creates a handler. maxBodySize <= 0 leaves bodies
// unbounded.
func NewLibraryHandler(reg *registry.Registry, maxBodySize int64) *LibraryHandler {
	return &LibraryHandler{
		registry:    reg,
		maxBodySize: maxBodySize,
		validate:    validator.New(),
	}
}

// SortRequest is the body of POST /libraries/{name}/sort.
type SortRequest struct {
	MustHave   []string `json:"must_have,omitempty"`
	MustNot    []string `json:"must_not,omitempty"`
	Order      []string `json:"order" validate:"dive,required"`
	Descending bool     `json:"descending,omitempty"`
	Async      bool     `json:"async,omitempty"`
}

func (req SortRequest) toLibrary() library.SortRequest {
	return library.SortRequest{
		Criteria:   filter.NewCriteria(tags(req.MustHave), tags(req.MustNot)),
		Order:      tags(req.Order),
		Descending: req.Descending,
		Async:      req.Async,
	}
}

func tags(names []string) []catalog.Tag {
	out := make([]catalog.Tag, len(names))
	for i, n := range names {
		out[i] = catalog.Tag(n)
	}
	return out
}

// SortResponse reports an accepted sort. IDs is only set for synchronous
// requests, which have committed by the time the response is written.
type SortResponse struct {
	Library string   `json:"library"`
	Version uint64   `json:"version"`
	Async   bool     `json:"async"`
	IDs     []string `json:"ids,omitempty"`
}

// IDsResponse is the body of GET /libraries/{name}/ids.
type IDsResponse struct {
	Library string   `json:"library"`
	Version uint64   `json:"version"`
	IDs     []string `json:"ids"`
}

// List handles GET /api/v1/libraries.
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	out := make([]library.Status, 0, h.registry.Len())
	for _, name := range h.registry.Names() {
		st, err := h.registry.Status(name)
		if err != nil {
			// Removed between Names and Status.
			continue
		}
		out = append(out, st)
	}
	WriteJSONOK(w, out)
}

// Get handles GET /api/v1/libraries/{name}.
func (h *LibraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.registry.Status(chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSONOK(w, st)
}

// Register handles POST /api/v1/libraries/{name}. The body is a catalog
// document in JSON; an existing library with the same name is replaced.
func (h *LibraryHandler) Register(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	file, err := catalogfile.Decode(h.body(w, r), catalogfile.FormatJSON)
	if err != nil {
		h.writeBodyError(w, err)
		return
	}

	lib, err := h.registry.Register(r.Context(), name, file.CatalogItems())
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSONCreated(w, lib.Status())
}

// Remove handles DELETE /api/v1/libraries/{name}.
func (h *LibraryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !h.registry.RemoveLibrary(r.Context(), name) {
		NotFound(w, "Library not found")
		return
	}
	WriteNoContent(w)
}

// Sort handles POST /api/v1/libraries/{name}/sort.
func (h *LibraryHandler) Sort(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req SortRequest
	if !h.decode(w, r, &req) {
		return
	}

	// The request context ends with the response; async work must outlive it.
	ctx := r.Context()
	if req.Async {
		ctx = context.WithoutCancel(ctx)
	}

	task, err := h.registry.Sort(ctx, name, req.toLibrary(), nil)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := SortResponse{Library: name, Version: task.Token().Version, Async: req.Async}
	if req.Async {
		WriteJSON(w, http.StatusAccepted, resp)
		return
	}

	res, err := task.Wait(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp.IDs = res.IDs
	WriteJSONOK(w, resp)
}

// IDs handles GET /api/v1/libraries/{name}/ids. It waits for in-flight
// sorts up to the duration in the "wait" query parameter (default 5s).
func (h *LibraryHandler) IDs(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	wait := DefaultIDsWait
	if v := r.URL.Query().Get("wait"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			BadRequest(w, "Invalid wait duration")
			return
		}
		wait = d
	}

	lib, err := h.registry.Library(name)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), wait)
	defer cancel()

	ids, err := lib.SortedIDs(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSONOK(w, IDsResponse{Library: name, Version: lib.Version(), IDs: ids})
}

// SetBuffer handles PUT /api/v1/libraries/{name}/buffer.
func (h *LibraryHandler) SetBuffer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var target registry.Target
	if !h.decode(w, r, &target) {
		return
	}

	if err := h.registry.SetBufferTarget(r.Context(), name, target); err != nil {
		h.writeError(w, err)
		return
	}

	st, err := h.registry.Status(name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	WriteJSONOK(w, st)
}

func (h *LibraryHandler) body(w http.ResponseWriter, r *http.Request) io.Reader {
	if h.maxBodySize > 0 {
		return http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}
	return r.Body
}

// decode reads a JSON body into v and validates it. On failure the error
// response has been written and false is returned.
func (h *LibraryHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(h.body(w, r))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.writeBodyError(w, err)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		UnprocessableEntity(w, err.Error())
		return false
	}
	return true
}

func (h *LibraryHandler) writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		RequestEntityTooLarge(w, "Request body too large")
	case errors.Is(err, catalogfile.ErrInvalidCatalog):
		UnprocessableEntity(w, err.Error())
	default:
		BadRequest(w, "Invalid request body")
	}
}

// writeError maps registry and library errors to problem responses.
func (h *LibraryHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrLibraryNotFound):
		NotFound(w, "Library not found")
	case errors.Is(err, library.ErrItemNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, registry.ErrUnknownTarget),
		errors.Is(err, registry.ErrInvalidName),
		errors.Is(err, catalog.ErrEmptyCatalog):
		BadRequest(w, err.Error())
	case errors.Is(err, library.ErrClosed), errors.Is(err, library.ErrSuperseded):
		Conflict(w, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		GatewayTimeout(w, "Timed out waiting for in-flight sorts")
	default:
		logger.Error("API request failed", logger.Err(err))
		InternalServerError(w, "Internal error")
	}
}

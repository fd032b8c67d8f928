package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/assetstream/pkg/library"
)

// TargetKind selects how a Target is resolved.
type TargetKind string

const (
	TargetIndex    TargetKind = "index"
	TargetUniqueID TargetKind = "unique_id"
	TargetPage     TargetKind = "page"
	TargetAround   TargetKind = "around"
)

// Target is a buffer target in a form that can travel over the wire.
// Only the fields relevant to Kind are read.
type Target struct {
	Kind TargetKind `json:"kind" validate:"required,oneof=index unique_id page around"`

	Index    int    `json:"index,omitempty"`
	UniqueID string `json:"unique_id,omitempty"`
	Extent   int    `json:"extent,omitempty"`
	Margin   int    `json:"margin,omitempty"`

	Page        int `json:"page,omitempty"`
	PageSize    int `json:"page_size,omitempty"`
	BufferPages int `json:"buffer_pages,omitempty"`
}

// ErrUnknownTarget is wrapped when a Target names an unsupported kind.
var ErrUnknownTarget = errors.New("registry: unknown target kind")

// Apply sets t as the buffer target of lib.
func (t Target) Apply(ctx context.Context, lib *library.Library) error {
	switch t.Kind {
	case TargetIndex:
		return lib.SetBufferTargetByIndex(ctx, t.Index, t.Margin)
	case TargetUniqueID:
		return lib.SetBufferTargetByUniqueID(ctx, t.UniqueID, t.Margin)
	case TargetPage:
		return lib.SetBufferTargetByPage(ctx, t.Page, t.PageSize, t.BufferPages)
	case TargetAround:
		return lib.SetBufferTargetAroundIndex(ctx, t.Index, t.Extent, t.Margin)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTarget, t.Kind)
	}
}

package output

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/marmos91/assetstream/pkg/apiclient"
)

// LibraryList renders library statuses.
type LibraryList []apiclient.LibraryStatus

func (l LibraryList) Headers() []string {
	return []string{"Name", "Version", "Items", "Sorted", "Requested", "Loaded", "High", "Window"}
}

func (l LibraryList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, st := range l {
		rows = append(rows, []string{
			st.Name,
			strconv.FormatUint(st.Version, 10),
			strconv.Itoa(st.Items),
			strconv.Itoa(st.Sorted),
			strconv.Itoa(st.Requested),
			strconv.Itoa(st.Loaded),
			strconv.Itoa(st.High),
			FormatWindow(st.Target),
		})
	}
	return rows
}

// FormatWindow renders a buffer target as "start-end ±margin (mode)".
func FormatWindow(w *apiclient.Window) string {
	if w == nil {
		return "-"
	}
	return fmt.Sprintf("%d-%d ±%d (%s)", w.Start, w.End, w.Margin, w.Mode)
}

// Placement is one item of a sorted order and the tier it would be
// loaded at.
type Placement struct {
	Position    int                `json:"position" yaml:"position"`
	UniqueID    string             `json:"unique_id" yaml:"unique_id"`
	Tier        string             `json:"tier,omitempty" yaml:"tier,omitempty"`
	Descriptors map[string]float64 `json:"descriptors,omitempty" yaml:"descriptors,omitempty"`
}

// Placements renders a sorted order.
type Placements []Placement

func (p Placements) Headers() []string {
	return []string{"#", "Unique ID", "Tier", "Descriptors"}
}

func (p Placements) Rows() [][]string {
	rows := make([][]string, 0, len(p))
	for _, pl := range p {
		tier := pl.Tier
		if tier == "" {
			tier = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(pl.Position),
			pl.UniqueID,
			tier,
			formatDescriptors(pl.Descriptors),
		})
	}
	return rows
}

// formatDescriptors renders tags in name order.
func formatDescriptors(d map[string]float64) string {
	if len(d) == 0 {
		return "-"
	}
	tags := make([]string, 0, len(d))
	for tag := range d {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = tag + "=" + strconv.FormatFloat(d[tag], 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

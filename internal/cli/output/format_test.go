package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "table", input: "table", want: FormatTable},
		{name: "empty defaults to table", input: "", want: FormatTable},
		{name: "json", input: "json", want: FormatJSON},
		{name: "JSON uppercase", input: "JSON", want: FormatJSON},
		{name: "yml alias", input: "yml", want: FormatYAML},
		{name: "whitespace trimmed", input: "  table  ", want: FormatTable},
		{name: "invalid format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinter_Formats(t *testing.T) {
	data := Placements{{Position: 0, UniqueID: "sword", Tier: "high", Descriptors: map[string]float64{"blade": 1}}}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatJSON).Print(data))
	assert.Contains(t, buf.String(), `"unique_id": "sword"`)

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatYAML).Print(data))
	assert.Contains(t, buf.String(), "unique_id: sword")

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatTable).Print(data))
	assert.Contains(t, buf.String(), "UNIQUE ID")
	assert.Contains(t, buf.String(), "blade=1")
}

func TestPrinter_TableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable).Print(map[string]int{"n": 1}))
	assert.Contains(t, buf.String(), `"n": 1`)
}

func TestPrinter_PrintfOnlyForTables(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, FormatJSON).Printf("hello %s\n", "world")
	assert.Empty(t, buf.String())

	NewPrinter(&buf, FormatTable).Printf("hello %s\n", "world")
	assert.Equal(t, "hello world\n", buf.String())
}

package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVExporterRenderWithFooter(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Headers: []string{"Student", "Workshop", "Reference Price"},
		Rows: []map[string]string{
			{"Student": "Ana", "Workshop": "Ceramics", "Reference Price": "10000.00"},
			{"Student": "Ana", "Workshop": "Guitar", "Reference Price": "7000.00"},
		},
		Footer: map[string]string{"Student": "TOTAL", "Reference Price": "17000.00"},
	}

	payload, err := exporter.Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "Student,Workshop,Reference Price", lines[0])
	require.Equal(t, "TOTAL,,17000.00", lines[3])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

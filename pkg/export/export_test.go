package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Academic calendar 2025-2026",
		Headers: []string{"Type", "Start", "End"},
		Rows: []map[string]string{
			{"Type": "teaching", "Start": "2025-09-15", "End": "2025-12-20"},
			{"Type": "break", "Start": "2025-12-21", "End": "2026-01-10"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Type,Start,End\nteaching,2025-09-15,2025-12-20\nbreak,2025-12-21,2026-01-10\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestCSVExporterOptions(t *testing.T) {
	data := Dataset{
		Headers: []string{"Name", "Start"},
		Rows:    []map[string]string{{"Name": "=HYPERLINK(\"x\")", "Start": "2025-09-29"}},
	}
	out, err := NewCSVExporter(WithDelimiter(';'), WithByteOrderMark(true)).Render(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Equal(t, "Name;Start\n\"'=HYPERLINK(\"\"x\"\")\";2025-09-29\n", string(out[len(utf8BOM):]))
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	widths := columnWidths(sampleDataset())
	sum := 0.0
	for _, w := range widths {
		sum += w
	}
	assert.InDelta(t, pageContentWidth, sum, 0.001)
}

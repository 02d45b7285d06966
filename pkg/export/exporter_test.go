package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Dataset {
	return Dataset{
		Headers: []string{"Date", "Name", "Status"},
		Rows: []map[string]string{
			{"Date": "2026-10-16", "Name": "Ana, R.", "Status": "Present"},
			{"Date": "2026-10-16", "Name": "Budi", "Status": "Late"},
		},
	}
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sample(), "")
	require.NoError(t, err)
	assert.Equal(t, "Date,Name,Status\n2026-10-16,\"Ana, R.\",Present\n2026-10-16,Budi,Late\n", string(out))
}

func TestCSVRenderTitleIsComment(t *testing.T) {
	out, err := NewCSVExporter().Render(sample(), "Staff Attendance Report")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "# Staff Attendance Report\nDate,Name,Status\n"))

	reader := csv.NewReader(bytes.NewReader(out))
	reader.Comment = '#'
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Date", "Name", "Status"}, records[0])
	assert.Equal(t, "Ana, R.", records[1][1])
}

func TestCSVRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sample(), "Staff attendance")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestExporterMetadata(t *testing.T) {
	assert.Equal(t, "text/csv", NewCSVExporter().ContentType())
	assert.Equal(t, "pdf", NewPDFExporter().Extension())
}

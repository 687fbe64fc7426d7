package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transcript = Dataset{
	Title: "Enrollments",
	Columns: []Column{
		{Key: "course", Title: "Course"},
		{Key: "status", Title: "Status"},
	},
	Rows: []Row{
		{"course": "Intro to AI, Part 1", "status": "completed"},
		{"course": "Prompt Engineering"},
	},
}

func TestCSVExporterRender(t *testing.T) {
	exp := &CSVExporter{}
	out, err := exp.Render(transcript)
	require.NoError(t, err)
	assert.Equal(t, "course,status\n\"Intro to AI, Part 1\",completed\nPrompt Engineering,\n", string(out))
}

func TestCSVExporterBOM(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{Columns: []Column{{Key: "a"}}})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("\ufeff")))
	assert.Equal(t, "csv", NewCSVExporter().Extension())
}

func TestCSVExporterRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRenderTable(t *testing.T) {
	out, err := NewPDFExporter("").Render(transcript)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter("").Render(Dataset{})
	assert.Error(t, err)
}

func TestTruncateLongCells(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 40))
	long := truncate("Machine Learning Foundations for Practitioners", 20)
	assert.True(t, len([]rune(long)) <= 11)
	assert.Contains(t, long, "...")
}

func TestPDFExporterRenderCertificate(t *testing.T) {
	out, err := NewPDFExporter("").RenderCertificate(CertificateDocument{
		CertificateNumber: "FXL-2024-0001",
		LearnerName:       "Ana Souza",
		CourseTitle:       "Machine Learning Foundations",
		Instructor:        "Dr. Rao",
		Duration:          "12h",
		IssuedAt:          time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRenderCertificateValidation(t *testing.T) {
	_, err := NewPDFExporter("").RenderCertificate(CertificateDocument{CourseTitle: "x"})
	assert.Error(t, err)
}

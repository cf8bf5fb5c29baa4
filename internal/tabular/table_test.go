package tabular

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/datacurio/schemactl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSONRecords(t *testing.T) {
	t.Parallel()

	table, err := FromJSONRecords([]byte(`[
	  {"Patient ID": "p1", "Sex": "Female", "Year of Birth": 1990},
	  {"Patient ID": "p2", "Sex": "Male", "Diagnosis": "Healthy"}
	]`))
	require.NoError(t, err)

	// Column order follows first appearance across records.
	assert.Equal(t, []string{"Patient ID", "Sex", "Year of Birth", "Diagnosis"}, table.Columns)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"p1", "Female", "1990", ""}, table.Rows[0])
	assert.Equal(t, []string{"p2", "Male", "", "Healthy"}, table.Rows[1])
}

func TestFromJSONRecordsValues(t *testing.T) {
	t.Parallel()

	table, err := FromJSONRecords([]byte(`[
	  {"a": null, "b": true, "c": 1.5, "d": "with \"quotes\""}
	]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"", "true", "1.5", `with "quotes"`}, table.Rows[0])
}

func TestFromJSONRecordsEmpty(t *testing.T) {
	t.Parallel()

	table, err := FromJSONRecords([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, table.Columns)
	assert.Empty(t, table.Rows)
}

func TestFromJSONRecordsMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"truncated", `[{"a": "b"`},
		{"object not array", `{"a": "b"}`},
		{"array of scalars", `[1, 2, 3]`},
		{"not json", `Patient ID,Sex`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := FromJSONRecords([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, domain.IsFormatError(err))
		})
	}
}

func TestWriteReadCSVRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "manifest.csv")
	original := &domain.Table{
		Columns: []string{"Patient ID", "Sex"},
		Rows: [][]string{
			{"p1", "Female"},
			{"p2", "value, with comma"},
		},
	}

	require.NoError(t, WriteCSV(original, path))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, original.Columns, got.Columns)
	assert.Equal(t, original.Rows, got.Rows)
}

func TestReadCSVRaggedRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ragged.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2\n"), 0644))

	table, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, table.Columns)
	assert.Equal(t, [][]string{{"1", "2"}}, table.Rows)
}

func TestReadCSVEmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	table, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Empty(t, table.Columns)
	assert.Empty(t, table.Rows)
}

func TestRecordsFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "manifest.csv")
	require.NoError(t, os.WriteFile(path, []byte("Patient ID,Sex\np1,Female\n"), 0644))

	records, err := RecordsFromFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, map[string]string{"Patient ID": "p1", "Sex": "Female"}, records[0])
}

func TestNormalizeJSONUpload(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	upload := &domain.ManifestUpload{
		Filename:    "patient.json",
		ContentType: domain.ContentTypeJSON,
		Content:     []byte(`[{"Patient ID": "p1", "Sex": "Female"}]`),
	}

	path, err := Normalize(upload, tmpDir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".csv"))

	table, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Patient ID", "Sex"}, table.Columns)
	assert.Equal(t, [][]string{{"p1", "Female"}}, table.Rows)
}

func TestNormalizeOpaqueUpload(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	content := []byte("Patient ID,Sex\np1,Female\n")
	upload := &domain.ManifestUpload{
		Filename:    "patient.csv",
		ContentType: "text/csv",
		Content:     content,
	}

	path, err := Normalize(upload, tmpDir)
	require.NoError(t, err)

	// Opaque uploads are saved byte for byte.
	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, saved)
}

func TestNormalizeUniquePaths(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	upload := &domain.ManifestUpload{
		Filename:    "patient.csv",
		ContentType: "text/csv",
		Content:     []byte("a\n1\n"),
	}

	first, err := Normalize(upload, tmpDir)
	require.NoError(t, err)
	second, err := Normalize(upload, tmpDir)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestNormalizeMalformedJSON(t *testing.T) {
	t.Parallel()

	upload := &domain.ManifestUpload{
		Filename:    "patient.json",
		ContentType: domain.ContentTypeJSON,
		Content:     []byte(`{"a":`),
	}

	_, err := Normalize(upload, t.TempDir())
	require.Error(t, err)
	assert.True(t, domain.IsFormatError(err))
}

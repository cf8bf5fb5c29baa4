package tabular

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/datacurio/schemactl/internal/domain"
	"github.com/datacurio/schemactl/internal/utils"
)

// Normalize turns an uploaded manifest into a temporary CSV file the
// validation and submission engines can read. JSON record payloads are
// decoded into rows and columns; anything else is treated as an opaque
// tabular file and saved as-is. The returned path is unique per call.
func Normalize(upload *domain.ManifestUpload, tmpDir string) (string, error) {
	if upload.IsJSON() {
		table, err := FromJSONRecords(upload.Content)
		if err != nil {
			return "", err
		}
		path := utils.TempFilePath(tmpDir, csvName(upload.Filename))
		if err := WriteCSV(table, path); err != nil {
			return "", err
		}
		return path, nil
	}

	path := utils.TempFilePath(tmpDir, saveName(upload.Filename))
	if err := os.WriteFile(path, upload.Content, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func csvName(filename string) string {
	if filename == "" {
		return "manifest.csv"
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return base + ".csv"
}

func saveName(filename string) string {
	if filename == "" {
		return "manifest.csv"
	}
	return filename
}

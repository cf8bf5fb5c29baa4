package server

import (
	"fmt"
	"io"
	"strings"

	"github.com/datacurio/schemactl/internal/domain"
	"github.com/gin-gonic/gin"
)

// ParseBool converts a string boolean parameter once, at the boundary.
// Accepts true/false and their t/f prefixes, case-insensitive.
func ParseBool(value string) (bool, error) {
	switch {
	case value == "":
		return false, fmt.Errorf("empty boolean parameter")
	case strings.HasPrefix(strings.ToLower(value), "t"):
		return true, nil
	case strings.HasPrefix(strings.ToLower(value), "f"):
		return false, nil
	}
	return false, fmt.Errorf("boolean parameter %q is neither true nor false", value)
}

// ParseOptionalBool converts a tri-state boolean parameter. An absent
// value and the literal sentinel "None" both mean "use the default";
// they come back as nil, distinct from an explicit false.
func ParseOptionalBool(value string) (*bool, error) {
	if value == "" || value == "None" {
		return nil, nil
	}
	b, err := ParseBool(value)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// boolQuery reads a boolean query parameter with a default
func boolQuery(c *gin.Context, name string, def bool) (bool, error) {
	value := c.Query(name)
	if value == "" {
		return def, nil
	}
	return ParseBool(value)
}

// credential extracts the access credential from the Authorization
// header, falling back to the access_token query parameter. The token
// is opaque and forwarded as-is.
func credential(c *gin.Context) domain.Credential {
	token := ""
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token = strings.TrimPrefix(auth, "Bearer ")
	} else {
		token = c.Query("access_token")
	}
	return domain.Credential{
		Token:     token,
		AssetView: c.Query("asset_view"),
	}
}

// manifestUpload reads the uploaded manifest from either the json_str
// form value or the file_name multipart file.
func manifestUpload(c *gin.Context) (*domain.ManifestUpload, error) {
	if jsonStr := c.PostForm("json_str"); jsonStr != "" {
		return &domain.ManifestUpload{
			Filename:    "manifest.json",
			ContentType: domain.ContentTypeJSON,
			Content:     []byte(jsonStr),
		}, nil
	}

	fileHeader, err := c.FormFile("file_name")
	if err != nil {
		return nil, fmt.Errorf("no manifest payload: %w", err)
	}
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &domain.ManifestUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

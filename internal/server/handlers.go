package server

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/datacurio/schemactl/internal/app"
	"github.com/datacurio/schemactl/internal/domain"
	"github.com/datacurio/schemactl/internal/tabular"
	"github.com/gin-gonic/gin"
)

const excelMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error code and message
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps the error taxonomy onto HTTP status codes
func (s *Server) respondError(c *gin.Context, err error) {
	var (
		status = http.StatusInternalServerError
		code   = "INTERNAL"
	)

	var storageErr *domain.StorageError
	switch {
	case domain.IsConflict(err):
		status, code = http.StatusBadRequest, "REQUEST_CONFLICT"
	case domain.IsFormatError(err):
		status, code = http.StatusBadRequest, "FORMAT_ERROR"
	case domain.IsSchemaError(err):
		status, code = http.StatusNotFound, "SCHEMA_ERROR"
	case errors.As(err, &storageErr):
		code = "STORAGE_ERROR"
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, domain.ErrNotFound):
			status = http.StatusNotFound
		default:
			status = http.StatusBadGateway
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("Request failed")
	} else {
		s.logger.Debug().Err(err).Msg("Request rejected")
	}

	c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: err.Error()}})
}

// GenerateRequest is the manifest generation request body
type GenerateRequest struct {
	SchemaURL      string   `json:"schema_url" binding:"required"`
	AssetView      string   `json:"asset_view"`
	DatasetIDs     []string `json:"dataset_ids"`
	DataTypes      []string `json:"data_types" binding:"required"`
	Title          string   `json:"title"`
	OutputFormat   string   `json:"output_format"`
	UseAnnotations bool     `json:"use_annotations"`
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, domain.NewConflictError("invalid request body: %v", err))
		return
	}

	format := domain.OutputFormat(req.OutputFormat)
	if req.OutputFormat == "" {
		format = domain.FormatExcel
	}

	spec := &domain.ManifestRequestSpec{
		SchemaURL:      req.SchemaURL,
		AccessToken:    credential(c).Token,
		AssetView:      req.AssetView,
		DatasetIDs:     req.DatasetIDs,
		DataTypes:      req.DataTypes,
		Title:          req.Title,
		OutputFormat:   format,
		UseAnnotations: req.UseAnnotations,
	}

	result, err := s.orchestrator.Generate(c.Request.Context(), spec)
	if err != nil {
		s.respondError(c, err)
		return
	}

	// Spreadsheet documents stream back as an attachment; everything
	// else is JSON.
	if format == domain.FormatExcel {
		artifact := result.Artifacts[0]
		for _, advisory := range result.Advisories {
			c.Header("X-Manifest-Advisory", advisory)
		}
		c.Header("Content-Type", excelMIME)
		c.FileAttachment(artifact.Path, filepath.Base(artifact.Path))
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleValidate(c *gin.Context) {
	upload, err := manifestUpload(c)
	if err != nil {
		s.respondError(c, domain.NewConflictError("%v", err))
		return
	}
	restrictRules, err := boolQuery(c, "restrict_rules", false)
	if err != nil {
		s.respondError(c, domain.NewConflictError("%v", err))
		return
	}

	result, vErr := s.pipeline.Validate(c.Request.Context(), app.ValidateParams{
		SchemaURL:     c.Query("schema_url"),
		Component:     c.Query("data_type"),
		Upload:        upload,
		RestrictRules: restrictRules,
	})
	if vErr != nil {
		s.respondError(c, vErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSubmit(c *gin.Context) {
	upload, err := manifestUpload(c)
	if err != nil {
		s.respondError(c, domain.NewConflictError("%v", err))
		return
	}
	restrictRules, err := boolQuery(c, "restrict_rules", false)
	if err != nil {
		s.respondError(c, domain.NewConflictError("%v", err))
		return
	}
	useSchemaLabel, err := ParseOptionalBool(c.Query("use_schema_label"))
	if err != nil {
		s.respondError(c, domain.NewConflictError("%v", err))
		return
	}

	restrictComponent := c.Query("data_type")
	if restrictComponent == "None" {
		restrictComponent = ""
	}

	manifestID, sErr := s.pipeline.Submit(c.Request.Context(), app.SubmitParams{
		SchemaURL:         c.Query("schema_url"),
		Upload:            upload,
		DatasetID:         c.Query("dataset_id"),
		AccessToken:       credential(c).Token,
		RestrictComponent: restrictComponent,
		RecordType:        c.Query("manifest_record_type"),
		TableManipulation: c.Query("table_manipulation"),
		UseSchemaLabel:    useSchemaLabel,
		RestrictRules:     restrictRules,
	})
	if sErr != nil {
		s.respondError(c, sErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"manifest_id": manifestID})
}

func (s *Server) handlePopulate(c *gin.Context) {
	upload, err := manifestUpload(c)
	if err != nil {
		s.respondError(c, domain.NewConflictError("%v", err))
		return
	}
	asDocument, err := boolQuery(c, "return_excel", false)
	if err != nil {
		s.respondError(c, domain.NewConflictError("%v", err))
		return
	}

	link, pErr := s.pipeline.Populate(c.Request.Context(), app.PopulateParams{
		SchemaURL:  c.Query("schema_url"),
		Component:  c.Query("data_type"),
		Upload:     upload,
		Title:      c.Query("title"),
		AsDocument: asDocument,
	})
	if pErr != nil {
		s.respondError(c, pErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}

func (s *Server) handleDependencies(c *gin.Context) {
	displayNames, err := boolQuery(c, "return_display_names", true)
	if err != nil {
		s.respondError(c, domain.NewConflictError("%v", err))
		return
	}
	schemaOrdered, err := boolQuery(c, "return_schema_ordered", true)
	if err != nil {
		s.respondError(c, domain.NewConflictError("%v", err))
		return
	}

	deps, dErr := s.resolver.Dependencies(c.Request.Context(),
		c.Query("schema_url"), c.Query("source_node"), displayNames, schemaOrdered)
	if dErr != nil {
		s.respondError(c, dErr)
		return
	}
	c.JSON(http.StatusOK, deps)
}

func (s *Server) handleRange(c *gin.Context) {
	displayNames, err := boolQuery(c, "return_display_names", true)
	if err != nil {
		s.respondError(c, domain.NewConflictError("%v", err))
		return
	}

	values, rErr := s.resolver.Range(c.Request.Context(),
		c.Query("schema_url"), c.Query("node_label"), displayNames)
	if rErr != nil {
		s.respondError(c, rErr)
		return
	}
	c.JSON(http.StatusOK, values)
}

func (s *Server) handleRequired(c *gin.Context) {
	required, err := s.resolver.IsRequired(c.Request.Context(),
		c.Query("schema_url"), c.Query("node_display_name"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, required)
}

func (s *Server) handleValidationRules(c *gin.Context) {
	rules, err := s.resolver.ValidationRules(c.Request.Context(),
		c.Query("schema_url"), c.Query("node_display_name"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (s *Server) handleDisplayNames(c *gin.Context) {
	labels := c.QueryArray("node_list")
	if len(labels) == 1 && strings.Contains(labels[0], ",") {
		labels = strings.Split(labels[0], ",")
	}

	names, err := s.resolver.DisplayNames(c.Request.Context(), c.Query("schema_url"), labels)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, names)
}

func (s *Server) handlePropertyLabel(c *gin.Context) {
	strict, err := boolQuery(c, "strict_camel_case", false)
	if err != nil {
		s.respondError(c, domain.NewConflictError("%v", err))
		return
	}

	label, lErr := s.resolver.PropertyLabelFor(c.Request.Context(),
		c.Query("schema_url"), c.Query("display_name"), strict)
	if lErr != nil {
		s.respondError(c, lErr)
		return
	}
	c.JSON(http.StatusOK, label)
}

func (s *Server) handleGraphByEdgeType(c *gin.Context) {
	edges, err := s.resolver.EdgesByRelation(c.Request.Context(),
		c.Query("schema_url"), c.Query("relationship"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, edges)
}

func (s *Server) handleComponentRequirements(c *gin.Context) {
	asGraph, err := boolQuery(c, "as_graph", false)
	if err != nil {
		s.respondError(c, domain.NewConflictError("%v", err))
		return
	}

	schemaURL := c.Query("schema_url")
	source := c.Query("source_component")

	if asGraph {
		edges, gErr := s.expander.RequirementEdges(c.Request.Context(), schemaURL, source)
		if gErr != nil {
			s.respondError(c, gErr)
			return
		}
		c.JSON(http.StatusOK, edges)
		return
	}

	components, rErr := s.expander.Requirements(c.Request.Context(), schemaURL, source)
	if rErr != nil {
		s.respondError(c, rErr)
		return
	}
	c.JSON(http.StatusOK, components)
}

func (s *Server) handleProjects(c *gin.Context) {
	projects, err := s.storage.Projects(c.Request.Context(), credential(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (s *Server) handleProjectDatasets(c *gin.Context) {
	datasets, err := s.storage.DatasetsInProject(c.Request.Context(), credential(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, datasets)
}

func (s *Server) handleProjectManifests(c *gin.Context) {
	manifests, err := s.storage.ProjectManifests(c.Request.Context(), credential(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, manifests)
}

func (s *Server) handleDatasetFiles(c *gin.Context) {
	fullPath, err := boolQuery(c, "full_path", false)
	if err != nil {
		s.respondError(c, domain.NewConflictError("%v", err))
		return
	}

	fileNames := c.QueryArray("file_names")
	// An empty file_names filter means "no filter"
	allEmpty := true
	for _, name := range fileNames {
		if name != "" {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		fileNames = nil
	}

	files, fErr := s.storage.FilesInDataset(c.Request.Context(), credential(c), c.Param("id"), fileNames, fullPath)
	if fErr != nil {
		s.respondError(c, fErr)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (s *Server) handleDatasetManifest(c *gin.Context) {
	s.serveManifestDownload(c, func() (string, error) {
		return s.storage.DatasetManifest(c.Request.Context(), credential(c),
			c.Param("id"), c.Query("new_manifest_name"))
	})
}

func (s *Server) handleDownloadManifest(c *gin.Context) {
	s.serveManifestDownload(c, func() (string, error) {
		return s.storage.DownloadManifest(c.Request.Context(), credential(c),
			c.Param("id"), c.Query("new_manifest_name"))
	})
}

// serveManifestDownload returns a downloaded manifest either as JSON
// records or as the raw file, controlled by as_json.
func (s *Server) serveManifestDownload(c *gin.Context, download func() (string, error)) {
	asJSON, err := boolQuery(c, "as_json", true)
	if err != nil {
		s.respondError(c, domain.NewConflictError("%v", err))
		return
	}

	path, dErr := download()
	if dErr != nil {
		s.respondError(c, dErr)
		return
	}

	if asJSON {
		records, rErr := tabular.RecordsFromFile(path)
		if rErr != nil {
			s.respondError(c, rErr)
			return
		}
		c.JSON(http.StatusOK, records)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func (s *Server) handleManifestComponent(c *gin.Context) {
	component, err := s.storage.ManifestComponent(c.Request.Context(), credential(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, component)
}

func (s *Server) handleAssetViewTable(c *gin.Context) {
	records, err := s.storage.AssetViewTable(c.Request.Context(), credential(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleAssetViewCheck(c *gin.Context) {
	present, err := s.storage.InAssetView(c.Request.Context(), credential(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, present)
}

func (s *Server) handleEntityType(c *gin.Context) {
	entityType, err := s.storage.EntityType(c.Request.Context(), credential(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entityType)
}

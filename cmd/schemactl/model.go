package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/datacurio/schemactl/internal/app"
	"github.com/datacurio/schemactl/internal/domain"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <manifest>",
	Short: "Validate a filled manifest against the schema",
	Long: `Checks a filled manifest (CSV or JSON records) against the schema's
rules. Rule violations are reported, not treated as failures; the exit
code is non-zero only when errors were found or infrastructure failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var submitCmd = &cobra.Command{
	Use:   "submit <manifest>",
	Short: "Validate and submit a manifest to a dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

var populateCmd = &cobra.Command{
	Use:   "populate <manifest>",
	Short: "Merge a manifest into a freshly generated template",
	Args:  cobra.ExactArgs(1),
	RunE:  runPopulate,
}

func init() {
	validateCmd.Flags().String("schema-url", "", "Schema document URL (required)")
	validateCmd.Flags().String("data-type", "", "Component to validate against")
	validateCmd.Flags().Bool("restrict-rules", false, "Restrict validation to schema-declared rules")
	_ = validateCmd.MarkFlagRequired("schema-url")

	submitCmd.Flags().String("schema-url", "", "Schema document URL (required)")
	submitCmd.Flags().String("dataset-id", "", "Target dataset (required)")
	submitCmd.Flags().String("data-type", "", "Restrict validation to this component")
	submitCmd.Flags().String("record-type", "", "Record type (default table_file_and_entities)")
	submitCmd.Flags().String("table-manipulation", "", "Table manipulation method (default replace)")
	submitCmd.Flags().Bool("display-labels", false, "Submit with display names instead of schema labels")
	submitCmd.Flags().Bool("restrict-rules", false, "Restrict validation to schema-declared rules")
	submitCmd.Flags().String("access-token", "", "Storage access token (or SCHEMACTL_ACCESS_TOKEN)")
	_ = submitCmd.MarkFlagRequired("schema-url")
	_ = submitCmd.MarkFlagRequired("dataset-id")

	populateCmd.Flags().String("schema-url", "", "Schema document URL (required)")
	populateCmd.Flags().String("data-type", "", "Component the manifest belongs to (required)")
	populateCmd.Flags().String("title", "", "Title for the populated manifest")
	populateCmd.Flags().Bool("as-document", false, "Produce a spreadsheet document instead of a sheet link")
	_ = populateCmd.MarkFlagRequired("schema-url")
	_ = populateCmd.MarkFlagRequired("data-type")
}

// readUpload loads a manifest file from disk into an upload, inferring
// the content type from the extension.
func readUpload(path string) (*domain.ManifestUpload, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	contentType := "text/csv"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		contentType = domain.ContentTypeJSON
	}
	return &domain.ManifestUpload{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Content:     content,
	}, nil
}

func buildPipeline(cmd *cobra.Command) (*app.Pipeline, func(), error) {
	cfg, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	meta, err := buildMetadata(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("metadata service: %w", err)
	}
	pipeline, err := app.NewPipeline(app.PipelineOptions{
		Engine:  meta,
		TempDir: cfg.Generation.TempDir,
		Logger:  log,
	})
	if err != nil {
		return nil, nil, err
	}
	return pipeline, func() {}, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	pipeline, done, err := buildPipeline(cmd)
	if err != nil {
		return err
	}
	defer done()

	upload, err := readUpload(args[0])
	if err != nil {
		return err
	}

	schemaURL, _ := cmd.Flags().GetString("schema-url")
	component, _ := cmd.Flags().GetString("data-type")
	restrictRules, _ := cmd.Flags().GetBool("restrict-rules")

	ctx, cancel := signalContext()
	defer cancel()

	result, err := pipeline.Validate(ctx, app.ValidateParams{
		SchemaURL:     schemaURL,
		Component:     component,
		Upload:        upload,
		RestrictRules: restrictRules,
	})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	if len(result.Errors) > 0 {
		return fmt.Errorf("manifest has %d validation error(s)", len(result.Errors))
	}
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	pipeline, done, err := buildPipeline(cmd)
	if err != nil {
		return err
	}
	defer done()

	upload, err := readUpload(args[0])
	if err != nil {
		return err
	}

	schemaURL, _ := cmd.Flags().GetString("schema-url")
	datasetID, _ := cmd.Flags().GetString("dataset-id")
	component, _ := cmd.Flags().GetString("data-type")
	recordType, _ := cmd.Flags().GetString("record-type")
	tableManipulation, _ := cmd.Flags().GetString("table-manipulation")
	displayLabels, _ := cmd.Flags().GetBool("display-labels")
	restrictRules, _ := cmd.Flags().GetBool("restrict-rules")
	accessToken, _ := cmd.Flags().GetString("access-token")
	if accessToken == "" {
		accessToken = os.Getenv("SCHEMACTL_ACCESS_TOKEN")
	}

	params := app.SubmitParams{
		SchemaURL:         schemaURL,
		Upload:            upload,
		DatasetID:         datasetID,
		AccessToken:       accessToken,
		RestrictComponent: component,
		RecordType:        recordType,
		TableManipulation: tableManipulation,
		RestrictRules:     restrictRules,
	}
	if displayLabels {
		useSchemaLabel := false
		params.UseSchemaLabel = &useSchemaLabel
	}

	ctx, cancel := signalContext()
	defer cancel()

	manifestID, err := pipeline.Submit(ctx, params)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), manifestID)
	return nil
}

func runPopulate(cmd *cobra.Command, args []string) error {
	pipeline, done, err := buildPipeline(cmd)
	if err != nil {
		return err
	}
	defer done()

	upload, err := readUpload(args[0])
	if err != nil {
		return err
	}

	schemaURL, _ := cmd.Flags().GetString("schema-url")
	component, _ := cmd.Flags().GetString("data-type")
	title, _ := cmd.Flags().GetString("title")
	asDocument, _ := cmd.Flags().GetBool("as-document")

	ctx, cancel := signalContext()
	defer cancel()

	link, err := pipeline.Populate(ctx, app.PopulateParams{
		SchemaURL:  schemaURL,
		Component:  component,
		Upload:     upload,
		Title:      title,
		AsDocument: asDocument,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), link)
	return nil
}

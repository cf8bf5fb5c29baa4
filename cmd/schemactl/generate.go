package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/datacurio/schemactl/internal/app"
	"github.com/datacurio/schemactl/internal/domain"
	"github.com/datacurio/schemactl/internal/schema"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate manifest templates",
	Long: `Generates one manifest per requested component. Passing
--data-type "all manifests" expands to every component reachable
through the schema's requirement graph.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("schema-url", "", "Schema document URL (required)")
	generateCmd.Flags().StringSlice("data-type", nil, "Component to generate for (repeatable, required)")
	generateCmd.Flags().StringSlice("dataset-id", nil, "Dataset to annotate from (repeatable, pairs with --data-type)")
	generateCmd.Flags().String("title", "", "Base title for generated manifests")
	generateCmd.Flags().String("format", string(domain.FormatExcel), "Output format: excel, google_sheet, or dataframe")
	generateCmd.Flags().Bool("use-annotations", false, "Prepopulate from dataset annotations")
	generateCmd.Flags().String("access-token", "", "Storage access token (or SCHEMACTL_ACCESS_TOKEN)")
	generateCmd.Flags().StringP("output", "o", ".", "Directory for generated documents")

	_ = generateCmd.MarkFlagRequired("schema-url")
	_ = generateCmd.MarkFlagRequired("data-type")
}

// progressGenerator advances a progress bar after each produced artifact.
type progressGenerator struct {
	inner domain.Generator
	bar   *progressbar.ProgressBar
}

func (g *progressGenerator) Generate(ctx context.Context, req domain.GeneratorRequest) (*domain.Artifact, error) {
	artifact, err := g.inner.Generate(ctx, req)
	if err == nil {
		_ = g.bar.Add(1)
	}
	return artifact, err
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	schemaURL, _ := cmd.Flags().GetString("schema-url")
	dataTypes, _ := cmd.Flags().GetStringSlice("data-type")
	datasetIDs, _ := cmd.Flags().GetStringSlice("dataset-id")
	title, _ := cmd.Flags().GetString("title")
	format, _ := cmd.Flags().GetString("format")
	useAnnotations, _ := cmd.Flags().GetBool("use-annotations")
	accessToken, _ := cmd.Flags().GetString("access-token")
	outputDir, _ := cmd.Flags().GetString("output")
	if accessToken == "" {
		accessToken = os.Getenv("SCHEMACTL_ACCESS_TOKEN")
	}

	engine, closeCache, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	gen, err := buildGenerator(cfg)
	if err != nil {
		return fmt.Errorf("generator service: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	expander := schema.NewExpander(engine)
	components, err := expander.Expand(ctx, schemaURL, dataTypes)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(components),
		progressbar.OptionSetDescription("Generating manifests"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	orchestrator, err := app.NewOrchestrator(app.OrchestratorOptions{
		Expander:  expander,
		Generator: &progressGenerator{inner: gen, bar: bar},
		Logger:    log,
	})
	if err != nil {
		return err
	}

	result, err := orchestrator.Generate(ctx, &domain.ManifestRequestSpec{
		SchemaURL:      schemaURL,
		AccessToken:    accessToken,
		DatasetIDs:     datasetIDs,
		DataTypes:      dataTypes,
		Title:          title,
		OutputFormat:   domain.OutputFormat(format),
		UseAnnotations: useAnnotations,
	})
	if err != nil {
		return err
	}
	_ = bar.Finish()

	for _, advisory := range result.Advisories {
		fmt.Fprintln(os.Stderr, "warning:", advisory)
	}
	return writeArtifacts(cmd.OutOrStdout(), result.Artifacts, outputDir)
}

// writeArtifacts reports each artifact: documents are moved into the
// output directory, sheet links and tables go to stdout.
func writeArtifacts(out io.Writer, artifacts []domain.Artifact, outputDir string) error {
	for _, a := range artifacts {
		switch {
		case a.Path != "":
			dest := filepath.Join(outputDir, a.Title+".xlsx")
			if err := moveFile(a.Path, dest); err != nil {
				return fmt.Errorf("write %s: %w", dest, err)
			}
			fmt.Fprintln(out, dest)
		case a.SheetURL != "":
			fmt.Fprintln(out, a.SheetURL)
		case a.Table != nil:
			data, err := json.Marshal(a.Table)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
		}
	}
	return nil
}

// moveFile renames when possible and falls back to copy across devices.
func moveFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return os.Remove(src)
}

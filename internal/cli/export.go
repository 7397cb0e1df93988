package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/restforge/spec2client/internal/emitter/openapiemitter"
	"github.com/restforge/spec2client/internal/sink"
)

// ExportConfig captures the options of the export openapi command.
type ExportConfig struct {
	Input      string
	Out        string
	Title      string
	DocVersion string
	CommonName string
	Strict     bool
	Verbose    bool
}

var exportRunner = runExportOpenAPI

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Project the endpoint model onto other formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newExportOpenAPICmd())
	return cmd
}

func newExportOpenAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Export the descriptor corpus as an OpenAPI 3 document",
		Example: strings.TrimSpace(`  spec2client export openapi --input ./rest-api-spec --out ./openapi.json
  spec2client export openapi -i ./rest-api-spec --title "Search API" --doc-version 8.0.0`),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			cfg := &ExportConfig{}
			var err error
			if cfg.Input, err = flags.GetString("input"); err != nil {
				return err
			}
			if cfg.Out, err = flags.GetString("out"); err != nil {
				return err
			}
			if cfg.Title, err = flags.GetString("title"); err != nil {
				return err
			}
			if cfg.DocVersion, err = flags.GetString("doc-version"); err != nil {
				return err
			}
			if cfg.CommonName, err = flags.GetString("common"); err != nil {
				return err
			}
			if cfg.Strict, err = flags.GetBool("strict"); err != nil {
				return err
			}
			if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
				return err
			}
			cfg.normalize()
			if err := cfg.validate(); err != nil {
				return err
			}
			return exportRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringP("input", "i", "", "Directory of endpoint descriptor documents")
	flags.StringP("out", "o", "openapi.json", "Output file for the OpenAPI document")
	flags.String("title", "", "info.title of the exported document")
	flags.String("doc-version", "", "info.version of the exported document")
	flags.String("common", "", "File stem of the shared fragment document (defaults to _common)")
	flags.Bool("strict", false, "Fail the run when any descriptor is skipped")

	return cmd
}

func (c *ExportConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	c.Title = strings.TrimSpace(c.Title)
	c.DocVersion = strings.TrimSpace(c.DocVersion)
	c.CommonName = strings.TrimSpace(c.CommonName)
	if c.Out == "" {
		c.Out = "openapi.json"
	}
	if c.CommonName == "" {
		c.CommonName = "_common"
	}
}

func (c *ExportConfig) validate() error {
	if c.Input == "" {
		return newUsageError("export: --input is required")
	}
	return nil
}

func runExportOpenAPI(ctx context.Context, cfg *ExportConfig) error {
	logger := setupLogging(cfg.Verbose)

	rs, err := loadEndpoints(ctx, logger, pipelineInputs{
		Dir:        cfg.Input,
		CommonName: cfg.CommonName,
		Strict:     cfg.Strict,
	})
	if err != nil {
		return err
	}

	doc, err := openapiemitter.Export(rs, openapiemitter.Options{Title: cfg.Title, Version: cfg.DocVersion})
	if err != nil {
		return err
	}

	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}
	files := []sink.File{{Path: filepath.Base(cfg.Out), Content: sink.JSONDocument{Value: doc}}}
	if _, err := sink.Write(files, &sink.FilesystemSink{Root: filepath.Dir(cfg.Out)}, sink.Options{}); err != nil {
		return wrapOutputError(err, absOut)
	}
	logger.Info("wrote OpenAPI document", "out", absOut, "endpoints", len(rs))
	return nil
}

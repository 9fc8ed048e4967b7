package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/blaisecz/bioage-reset/internal/api/validation"
	"github.com/blaisecz/bioage-reset/internal/config"
	"github.com/blaisecz/bioage-reset/internal/domain"
	"github.com/blaisecz/bioage-reset/internal/langfuse"
	"github.com/blaisecz/bioage-reset/internal/llm"
	"github.com/blaisecz/bioage-reset/internal/logger"
	"github.com/blaisecz/bioage-reset/internal/render"
	"github.com/blaisecz/bioage-reset/internal/service"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// CLI holds the flags shared by all commands.
type CLI struct {
	lang      string
	fontDir   string
	coreFonts bool
	verbose   bool
}

// NewRootCommand builds the reportctl command tree.
func NewRootCommand() *cobra.Command {
	cli := &CLI{}

	rootCmd := &cobra.Command{
		Use:           "reportctl",
		Short:         "Generate and render BioAge reports",
		Long:          "Generate 90-day BioAge reports from questionnaire answers and render them to PDF.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cli.lang, "lang", "l", "en", "Report language (en, uk, ru)")
	rootCmd.PersistentFlags().StringVar(&cli.fontDir, "font-dir", "", "Extra directory searched for TrueType fonts")
	rootCmd.PersistentFlags().BoolVar(&cli.coreFonts, "core-fonts", false, "Use the built-in PDF fonts")
	rootCmd.PersistentFlags().BoolVarP(&cli.verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(newQuestionsCommand(cli))
	rootCmd.AddCommand(newGenerateCommand(cli))
	rootCmd.AddCommand(newRenderCommand(cli))
	return rootCmd
}

func newQuestionsCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "Print the questionnaire",
		Long:  "Print the questionnaire catalog as JSON with labels in --lang",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), domain.Questionnaire(domain.ParseLanguage(cli.lang)))
		},
	}
}

func newGenerateCommand(cli *CLI) *cobra.Command {
	var answersPath, outPath, pdfPath string
	var deterministic bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a report from answers",
		Long: "Read questionnaire answers (JSON or YAML, '-' for stdin), generate the report " +
			"and print it as JSON. The generative strategy is used when OPENAI_API_KEY is set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), answersPath)
			if err != nil {
				return err
			}
			answers, err := parseAnswers(raw, answersPath)
			if err != nil {
				return err
			}
			clean, fieldErrors := validation.ValidateAnswers(answers)
			if fieldErrors != nil {
				var msgs []string
				for _, fe := range fieldErrors {
					msgs = append(msgs, fe.Field+" "+fe.Message)
				}
				return fmt.Errorf("invalid answers: %s", strings.Join(msgs, "; "))
			}

			log := cli.logger()
			defer log.Sync()

			reports := cli.reportService(cmd.Context(), deterministic, log)
			doc := reports.Generate(cmd.Context(), clean, domain.ParseLanguage(cli.lang))
			log.Info("report generated", "generator", doc.Generator, "language", doc.Language)

			if pdfPath != "" {
				out, err := cli.renderer(log).Render(doc, doc.Language)
				if err != nil {
					return err
				}
				if err := os.WriteFile(pdfPath, out.Content, 0o644); err != nil {
					return fmt.Errorf("write pdf: %w", err)
				}
			}

			if outPath == "" || outPath == "-" {
				return writeJSON(cmd.OutOrStdout(), doc)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}
			defer f.Close()
			return writeJSON(f, doc)
		},
	}

	cmd.Flags().StringVarP(&answersPath, "answers", "a", "-", "Answers file (.json, .yaml) or - for stdin")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the report JSON here instead of stdout")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "Also render the report to this PDF file")
	cmd.Flags().BoolVar(&deterministic, "deterministic", false, "Skip the generative strategy")
	return cmd
}

func newRenderCommand(cli *CLI) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "render [report.json]",
		Short: "Render a report JSON document to PDF",
		Long:  "Render a stored report document ('-' for stdin) to PDF. Labels follow --lang when it is set, otherwise the report language.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			log := cli.logger()
			defer log.Sync()

			var lang domain.Language
			if cmd.Flags().Changed("lang") {
				lang = domain.ParseLanguage(cli.lang)
			}
			out, err := cli.renderer(log).RenderJSON(raw, lang)
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = out.Filename
			}
			if err := os.WriteFile(outPath, out.Content, 0o644); err != nil {
				return fmt.Errorf("write pdf: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", outPath, len(out.Content))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default bioage_report_<timestamp>.pdf)")
	return cmd
}

func (c *CLI) logger() *logger.Logger {
	level := "warn"
	if c.verbose {
		level = "debug"
	}
	log, err := logger.New("development", level)
	if err != nil {
		return logger.Nop()
	}
	return log
}

func (c *CLI) renderer(log *logger.Logger) *render.Renderer {
	fonts := render.CoreFonts()
	if !c.coreFonts {
		fonts = render.SharedFonts(c.fontDir)
	}
	return render.New(render.WithFonts(fonts), render.WithLogger(log))
}

// reportService wires the generative strategy when an OpenAI key is configured.
func (c *CLI) reportService(ctx context.Context, deterministic bool, log *logger.Logger) service.ReportService {
	if deterministic {
		return service.NewReportService(nil, log)
	}

	cfg := config.Load()
	prompt, source := langfuse.ResolvePrompt(ctx, langfuse.PromptLoaderConfig{
		BaseURL:     cfg.LangfuseBaseURL,
		PublicKey:   cfg.LangfusePublicKey,
		SecretKey:   cfg.LangfuseSecretKey,
		PromptName:  cfg.LangfuseReportPromptName,
		PromptLabel: cfg.LangfuseReportPromptLabel,
		SavePath:    cfg.ReportPromptCachePath,
		Logger:      log,
	}, llm.DefaultSystemPrompt)
	log.Debug("report prompt resolved", "source", source)

	client := llm.NewOpenAIClient(llm.Config{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIReportModel,
		Timeout:      cfg.OpenAITimeout,
		SystemPrompt: prompt,
	})
	if client == nil {
		return service.NewReportService(nil, log)
	}
	return service.NewReportService(client, log)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// parseAnswers decodes a flat answers object. YAML is chosen by file
// extension; stdin must be JSON.
func parseAnswers(raw []byte, path string) (map[string]string, error) {
	answers := make(map[string]string)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &answers); err != nil {
			return nil, fmt.Errorf("parse answers: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &answers); err != nil {
			return nil, fmt.Errorf("parse answers: %w", err)
		}
	}
	return answers, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

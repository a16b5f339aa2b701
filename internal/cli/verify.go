package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/veritas/internal/model"
	"github.com/ppiankov/veritas/internal/render"
	"github.com/ppiankov/veritas/internal/store"
)

var (
	inputFile     string
	remoteURL     string
	outJSON       string
	outMD         string
	verifyTimeout time.Duration
	quiet         bool
	noFooter      bool
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [text|-]",
	Short: "Verify the factual claims in a passage of text",
	Long: `Verify extracts claims from the text, gathers evidence for each claim,
judges every claim and prints a trust report.

Text comes from the arguments, from --file, or from stdin when the
argument is "-".

Example:
  veritas verify "The Eiffel Tower is in Paris. It was completed in 1889."
  veritas verify --file answer.txt --json report.json --md report.md
  echo "Water boils at 100 degrees Celsius." | veritas verify -
  veritas verify --remote http://localhost:8000 "The sky is blue."`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&inputFile, "file", "f", "", "read text from file")
	verifyCmd.Flags().StringVar(&remoteURL, "remote", "", "verify through a remote Veritas service instead of locally")
	verifyCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	verifyCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 5*time.Minute, "overall verification timeout")
	verifyCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print progress")
	verifyCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	bindPipelineFlags(verifyCmd)
}

// bindPipelineFlags adds flags that override pipeline configuration
func bindPipelineFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int("workers", 0, "concurrent per-claim workers")
	flags.String("extractor", "", "claim extractor (sentence, llm)")
	flags.String("search", "", "evidence backend (synthetic, tavily, duckduckgo)")
	flags.String("verifier", "", "claim verifier (heuristic, llm)")
	flags.String("aggregation", "", "trust score aggregation (mean, status)")
	flags.String("llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	flags.String("llm-model", "", "LLM model name")
	flags.Bool("strict-retrieval", false, "fail the run when evidence retrieval fails")
	flags.Bool("no-cache", false, "disable the evidence cache")

	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		for flag, key := range map[string]string{
			"workers":          "pipeline.workers",
			"extractor":        "extract.backend",
			"search":           "search.backend",
			"verifier":         "verify.backend",
			"aggregation":      "pipeline.aggregation",
			"llm-provider":     "llm.provider",
			"llm-model":        "llm.model",
			"strict-retrieval": "pipeline.strict_retrieval",
		} {
			if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
				_ = viper.BindPFlag(key, f)
			}
		}
		if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
			viper.Set("cache.enabled", false)
		}
	}
}

func runVerify(cmd *cobra.Command, args []string) error {
	text, err := readInput(args, inputFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	r, err := newRunner(cfg, remoteURL, logger)
	if err != nil {
		return err
	}

	var onProgress model.ProgressFunc
	if !quiet {
		onProgress = printProgress
	}

	report, err := r.Run(ctx, text, onProgress)
	if !quiet {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		printFailure(err)
		return fmt.Errorf("verification failed: %w", err)
	}

	renderer := render.NewRenderer(!noFooter)
	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}

	if cfg.Server.StorePath != "" {
		if err := saveReport(ctx, cfg.Server.StorePath, report); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save report: %v\n", err)
		}
	}

	renderer.WriteSummary(cmd.OutOrStdout(), report)
	return nil
}

// readInput resolves the submission from args, a file or stdin
func readInput(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return string(data), nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(io.LimitReader(stdin, 4*1024*1024))
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return "", fmt.Errorf("no text given: pass it as an argument, with --file, or use - for stdin")
	}
}

func printProgress(e model.ProgressEvent) {
	line := fmt.Sprintf("[%3d%%] %s", e.Percent, e.Stage)
	if e.Detail != "" {
		line += " " + e.Detail
	}
	fmt.Fprintf(os.Stderr, "\r\033[K%s", line)
}

func saveReport(ctx context.Context, path string, report *model.Report) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	return st.Save(context.WithoutCancel(ctx), report)
}

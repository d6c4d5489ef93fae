package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/usercrawl/internal/config"
	"github.com/nao1215/usercrawl/internal/crawler"
	"github.com/nao1215/usercrawl/internal/database"
	ucLog "github.com/nao1215/usercrawl/internal/log"
	"github.com/nao1215/usercrawl/internal/model"
	"github.com/nao1215/usercrawl/internal/mothership"
	"github.com/nao1215/usercrawl/internal/pipeline"
	"github.com/nao1215/usercrawl/internal/report"
	"github.com/nao1215/usercrawl/internal/transport"
	"github.com/spf13/cobra"
)

// ErrRunsFailed is returned by the crawl command when at least one run failed.
var ErrRunsFailed = errors.New("one or more crawls failed")

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Crawl user pages and submit the results to the mothership",
		Long: `Crawl fetches each seed URL, extracts one (title, link, community) triplet
per listing, follows the "next" pagination link until the queue is empty,
and submits the results to the mothership.

Fetch and submit errors are not retried: the run for that seed fails and
its partial progress is kept in the report and the archive.

Examples:
  # Crawl one user
  usercrawl crawl --mothership http://localhost:9000 https://old.reddit.com/user/someone

  # Crawl three users, two at a time, submitting after every page
  usercrawl crawl -M http://localhost:9000 -b 2 -s per-page \
    https://old.reddit.com/user/a https://old.reddit.com/user/b https://old.reddit.com/user/c

  # Crawl the seed page only, through a SOCKS5 proxy
  usercrawl crawl -M http://localhost:9000 -n 0 -x 127.0.0.1:9050 https://old.reddit.com/user/a

  # Write a Markdown report to a file
  usercrawl crawl -M http://localhost:9000 -m -o report.md https://old.reddit.com/user/a`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Mothership flags
	cmd.Flags().StringP("mothership", "M", "",
		"Base URL of the mothership (results are posted to <url>/results)")
	cmd.Flags().String("token", "",
		"Bearer token for the mothership")
	cmd.Flags().Bool("check-mothership", false,
		"Check GET <url>/health before crawling")

	// Crawl behavior flags
	cmd.Flags().IntP("max-links", "n", config.DefaultMaxLinks,
		"Capacity of the to-crawl queue (0 crawls only the seed page)")
	cmd.Flags().StringP("submit-policy", "s", config.DefaultSubmitPolicy,
		"When to submit results: once or per-page")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().StringP("user-agent", "A", config.DefaultUserAgent,
		"User-Agent header for page requests")
	cmd.Flags().StringP("proxy", "x", "",
		"Route page requests through a SOCKS5 proxy (host:port)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of seeds crawled concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .usercrawl in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Archive flags
	cmd.Flags().Bool("save", true,
		"Archive each run in the local SQLite database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the results database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	checkMothership, err := cmd.Flags().GetBool("check-mothership")
	if err != nil {
		return err
	}

	return runCrawl(ctx, cfg, crawlOptions{
		out:             cmd.OutOrStdout(),
		errOut:          cmd.ErrOrStderr(),
		logger:          logger,
		checkMothership: checkMothership,
	})
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the masking logger used by every command.
func setupLogger(verbose bool) *slog.Logger {
	return ucLog.NewSecureLogger(os.Stderr, verbose)
}

// buildConfig creates a Config from flags and the configuration file.
// Flags given explicitly win over file values.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.MothershipURL, err = flags.GetString("mothership"); err != nil {
		return nil, err
	}
	if cfg.MothershipToken, err = flags.GetString("token"); err != nil {
		return nil, err
	}
	if cfg.MaxLinks, err = flags.GetInt("max-links"); err != nil {
		return nil, err
	}
	if cfg.SubmitPolicy, err = flags.GetString("submit-policy"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	// An explicit --config that does not exist is an error; a missing
	// default file is not.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file, flags.Changed)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.Seeds = args
	return cfg, nil
}

// crawlOptions carries the runtime collaborators of runCrawl.
type crawlOptions struct {
	out             io.Writer
	errOut          io.Writer
	logger          *slog.Logger
	checkMothership bool
}

// runCrawl crawls every seed in cfg and returns ErrRunsFailed if any run did
// not finish.
func runCrawl(ctx context.Context, cfg *config.Config, opts crawlOptions) error {
	logger := opts.logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("starting crawl",
		"seeds", len(cfg.Seeds),
		"mothership", cfg.MothershipURL,
		"maxLinks", cfg.MaxLinks,
		"submitPolicy", cfg.SubmitPolicy,
		"batchSize", cfg.BatchSize,
		"proxy", cfg.ProxyAddress != "",
	)

	tc, err := transport.NewClient(transport.Options{
		Timeout:      cfg.Timeout,
		ProxyAddress: cfg.ProxyAddress,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}
	if status := tc.CheckProxy(ctx); status != transport.ProxyStatusOK {
		return fmt.Errorf("proxy check failed: %w (make sure a SOCKS5 proxy is running at %s)",
			status.Error(), cfg.ProxyAddress)
	}

	ms := mothership.NewClient(cfg.MothershipURL,
		mothership.WithToken(cfg.MothershipToken),
		mothership.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		mothership.WithUserAgent(userAgentForMothership()),
	)
	if opts.checkMothership {
		if err := ms.Ping(ctx); err != nil {
			return fmt.Errorf("mothership check failed: %w", err)
		}
		logger.Info("mothership reachable", "url", ms.BaseURL())
	}

	steps := pipeline.New(pipeline.WithLogger(logger), pipeline.WithContinueOnError(true))

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		steps.AddStep(pipeline.NewArchiveStep(db, pipeline.WithArchiveLogger(logger)))
	}

	output, closeOutput, err := openReportOutput(cfg, opts.out)
	if err != nil {
		return err
	}
	defer closeOutput()
	steps.AddStep(pipeline.NewReportStep(newReportWriter(cfg, output)))

	bp := pipeline.NewBatchProcessor(
		newWorkerFactory(cfg, tc.HTTPClient(), ms, logger),
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
		pipeline.WithPipeline(steps),
	)

	summaries, batchErr := bp.ProcessBatch(ctx, cfg.Seeds)

	failed := countFailed(summaries)
	if opts.errOut != nil {
		fmt.Fprintf(opts.errOut, "Crawled %d seed(s): %d complete, %d failed\n",
			len(summaries), len(summaries)-failed, failed)
	}

	if batchErr != nil {
		return fmt.Errorf("crawl interrupted: %w", batchErr)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrRunsFailed, failed, len(summaries))
	}
	return nil
}

// newWorkerFactory returns a factory that builds a worker for each seed with
// that seed's site settings applied.
func newWorkerFactory(cfg *config.Config, client *http.Client, submitter crawler.Submitter, logger *slog.Logger) pipeline.WorkerFactory {
	policy, err := crawler.ParseSubmitPolicy(cfg.SubmitPolicy)
	if err != nil {
		// Validate has already rejected unknown names.
		policy = crawler.SubmitOnce
	}

	return func(seed string) (*crawler.Worker, error) {
		userAgent, maxLinks := siteSettings(cfg, seed)

		fetcher := crawler.NewHTTPFetcher(client,
			crawler.WithUserAgent(userAgent),
			crawler.WithMaxBodySize(cfg.MaxBodySize),
			crawler.WithHeaders(cfg.SiteConfigs.Headers),
		)
		return crawler.NewWorker(seed, fetcher, submitter,
			crawler.WithMaxLinks(maxLinks),
			crawler.WithSubmitPolicy(policy),
			crawler.WithLogger(logger),
		)
	}
}

// siteSettings returns the User-Agent and queue capacity for seed.
// A site entry for the seed's host overrides the global values.
func siteSettings(cfg *config.Config, seed string) (string, int) {
	userAgent, maxLinks := cfg.UserAgent, cfg.MaxLinks
	if cfg.SiteConfigs == nil {
		return userAgent, maxLinks
	}
	u, err := url.Parse(seed)
	if err != nil {
		return userAgent, maxLinks
	}
	site, ok := cfg.SiteConfigs.Site(u.Hostname())
	if !ok {
		return userAgent, maxLinks
	}
	if site.UserAgent != "" {
		userAgent = site.UserAgent
	}
	if site.MaxLinks != nil {
		maxLinks = *site.MaxLinks
	}
	return userAgent, maxLinks
}

// openReportOutput opens the report destination. The returned close function
// is always safe to call.
func openReportOutput(cfg *config.Config, stdout io.Writer) (io.Writer, func(), error) {
	if cfg.ReportFile == "" {
		return stdout, func() {}, nil
	}

	if dir := filepath.Dir(cfg.ReportFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports contain collected user data and are readable by the owner only.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// newReportWriter returns the writer for the requested format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

func countFailed(summaries []*model.RunSummary) int {
	failed := 0
	for _, s := range summaries {
		if s == nil || s.Failed() {
			failed++
		}
	}
	return failed
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/mallcrawl/internal/app"
	"github.com/law-makers/mallcrawl/internal/config"
	"github.com/law-makers/mallcrawl/internal/discovery"
	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/internal/engine/batch"
	"github.com/law-makers/mallcrawl/internal/storage"
	"github.com/law-makers/mallcrawl/internal/ui"
	urlutil "github.com/law-makers/mallcrawl/internal/utils/url"
	"github.com/law-makers/mallcrawl/pkg/models"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Discover mall pages, extract records and store them",
	Long: `Walks the directory listing, fetches every mall page under the configured
rate limit, validates and scores the records, and stores them.

Progress is checkpointed every few batches. Use --resume-checkpoint to skip
pages a previous run already finished.`,
	Example: `  # Full crawl to JSON in ./data
  mallcrawl crawl

  # First five listing pages, stored in SQLite
  mallcrawl crawl --max-pages 5 -f sqlite

  # Resume the most recent interrupted run
  mallcrawl crawl --resume-checkpoint latest

  # Crawl a fixed list of pages without discovery
  mallcrawl crawl --urls-file malls.txt --dry-run`,
	Args: cobra.NoArgs,
	RunE: runWithApp(runCrawl),
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	config.RegisterCrawlFlags(crawlCmd)
	crawlCmd.Flags().Int("resume-from", 1, "Listing page to start discovery from")
	crawlCmd.Flags().String("resume-checkpoint", "", "Checkpoint file to resume from, or \"latest\"")
	crawlCmd.Flags().Bool("dry-run", false, "List the pages that would be crawled and stop")
	crawlCmd.Flags().String("urls-file", "", "Read mall page URLs from a file (one per line) instead of discovering them")
}

func runCrawl(cmd *cobra.Command, a *app.Application, _ []string) error {
	ctx := cmd.Context()
	cfg := a.Config
	out := cmd.OutOrStdout()

	urls, err := crawlTargets(ctx, cmd, a)
	if err != nil {
		return err
	}

	resumePath, _ := cmd.Flags().GetString("resume-checkpoint")
	cp, err := loadResume(a.Store, resumePath)
	if err != nil {
		return err
	}

	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		if cfg.JSONLog {
			return printJSON(out, urls)
		}
		renderListing(out, urls, nil)
		return nil
	}
	if len(urls) == 0 {
		fmt.Fprintln(out, ui.Info("No mall pages found"))
		return nil
	}

	format, _ := models.ParseOutputFormat(cfg.OutputFormat)
	opts := a.CrawlOptions(format)
	opts.ResumeFrom = cp

	if !cfg.Quiet && !cfg.JSONLog {
		opts.Progress = progressbar.NewOptions(len(batch.Pending(urls, cp)),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Crawling"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("pages"),
			progressbar.OptionClearOnFinish(),
		)
	}

	log.Info().
		Int("urls", len(urls)).
		Int("concurrency", opts.Concurrency).
		Int("rpm", opts.RequestsPerMinute).
		Int("batch_size", opts.BatchSize).
		Str("format", string(format)).
		Msg("Starting crawl")

	report, runErr := a.Crawler.Run(ctx, urls, opts)
	if report != nil && !cfg.Quiet {
		if cfg.JSONLog {
			if err := printJSON(out, report); err != nil {
				return err
			}
		} else {
			renderRunReport(out, report)
		}
	}
	return runErr
}

// crawlTargets returns the pages to crawl, from --urls-file or discovery.
func crawlTargets(ctx context.Context, cmd *cobra.Command, a *app.Application) ([]string, error) {
	if path, _ := cmd.Flags().GetString("urls-file"); path != "" {
		return readURLFile(path)
	}
	start, _ := cmd.Flags().GetInt("resume-from")
	res, err := a.Discoverer.Discover(ctx, discovery.Options{
		BaseURL:   a.Config.BaseURL,
		Endpoint:  a.Config.Endpoint,
		StartPage: start,
		MaxPages:  a.Config.MaxPages,
	})
	if err != nil {
		return nil, fmt.Errorf("discover mall pages: %w", err)
	}
	log.Info().
		Int("pages", res.PagesVisited).
		Int("urls", len(res.URLs)).
		Str("stop", res.StopReason).
		Msg("Discovery finished")
	return res.URLs, nil
}

// readURLFile reads absolute URLs, one per line. Blank lines and lines
// starting with # are skipped; duplicates are dropped.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open urls file: %w", err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := urlutil.ValidateURL(line); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, n, err)
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read urls file: %w", err)
	}
	return urlutil.Unique(urls), nil
}

func loadResume(store *storage.Store, path string) (*models.RunCheckpoint, error) {
	switch path {
	case "":
		return nil, nil
	case "latest":
		cp, p, err := store.LatestCheckpoint()
		if err != nil {
			return nil, err
		}
		if cp == nil {
			log.Warn().Str("dir", store.CheckpointDir()).Msg("No checkpoint found, starting fresh")
			return nil, nil
		}
		log.Info().Str("path", p).Int("completed", len(cp.CompletedURLs)).Msg("Loaded checkpoint")
		return cp, nil
	default:
		cp, err := storage.LoadCheckpoint(path)
		if engine.IsNotFound(err) {
			return nil, fmt.Errorf("%w; checkpoints are kept in %s", err, store.CheckpointDir())
		}
		return cp, err
	}
}

package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format only")
	cmd.PersistentFlags().StringSlice("proxy", nil, "HTTP/SOCKS5 proxy, repeat or comma-separate for rotation")
	cmd.PersistentFlags().Duration("timeout", DefaultHTTPTimeout, "Hard timeout per request")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().StringArrayP("header", "H", nil, "Extra request header (\"Key: Value\"), repeatable")
	cmd.PersistentFlags().String("config", "", "Path to YAML configuration file (optional)")
	cmd.PersistentFlags().StringP("output-dir", "o", "", "Directory for exports and checkpoints")
	cmd.PersistentFlags().String("render", "", "Rendering mode: static, spa or auto")
	cmd.PersistentFlags().String("base-url", "", "Directory site base URL")
}

// RegisterCrawlFlags registers the pacing and output flags used by crawl.
func RegisterCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output-format", "f", "", "Output format: json, csv or sqlite")
	cmd.Flags().Int("max-pages", 0, "Maximum listing pages to scan (0 = all, capped at 100)")
	cmd.Flags().IntP("concurrency", "c", 0, "Maximum concurrent requests (0 = auto)")
	cmd.Flags().Int("rpm", 0, "Requests per minute")
	cmd.Flags().Int("batch-size", 0, "URLs per batch")
	cmd.Flags().Int("checkpoint-every", 0, "Write a checkpoint every N batches")
	cmd.Flags().Bool("include-coordinates", DefaultIncludeCoordinates, "Include latitude/longitude in CSV output")
}

// applyFlags copies explicitly set flags onto cfg.
func applyFlags(cfg *Config, cmd *cobra.Command) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	var err error
	set := func(name string, fn func(fs *pflag.FlagSet) error) {
		if err == nil && changed(name) {
			err = fn(flags)
		}
	}

	set("verbose", func(fs *pflag.FlagSet) error {
		v, e := fs.GetBool("verbose")
		if v {
			cfg.LogLevel = "debug"
		}
		return e
	})
	set("quiet", func(fs *pflag.FlagSet) error {
		v, e := fs.GetBool("quiet")
		if v {
			cfg.Quiet = true
			cfg.LogLevel = "error"
		}
		return e
	})
	set("json", func(fs *pflag.FlagSet) (e error) { cfg.JSONLog, e = fs.GetBool("json"); return })
	set("proxy", func(fs *pflag.FlagSet) (e error) { cfg.Proxies, e = fs.GetStringSlice("proxy"); return })
	set("timeout", func(fs *pflag.FlagSet) (e error) { cfg.HTTPTimeout, e = fs.GetDuration("timeout"); return })
	set("user-agent", func(fs *pflag.FlagSet) (e error) { cfg.UserAgent, e = fs.GetString("user-agent"); return })
	set("header", func(fs *pflag.FlagSet) error {
		h, e := fs.GetStringArray("header")
		cfg.Headers = append(cfg.Headers, h...)
		return e
	})
	set("output-dir", func(fs *pflag.FlagSet) (e error) { cfg.OutputDir, e = fs.GetString("output-dir"); return })
	set("render", func(fs *pflag.FlagSet) (e error) { cfg.RenderMode, e = fs.GetString("render"); return })
	set("base-url", func(fs *pflag.FlagSet) (e error) { cfg.BaseURL, e = fs.GetString("base-url"); return })
	set("output-format", func(fs *pflag.FlagSet) (e error) { cfg.OutputFormat, e = fs.GetString("output-format"); return })
	set("max-pages", func(fs *pflag.FlagSet) (e error) { cfg.MaxPages, e = fs.GetInt("max-pages"); return })
	set("concurrency", func(fs *pflag.FlagSet) (e error) { cfg.MaxConcurrent, e = fs.GetInt("concurrency"); return })
	set("rpm", func(fs *pflag.FlagSet) (e error) { cfg.RequestsPerMinute, e = fs.GetInt("rpm"); return })
	set("batch-size", func(fs *pflag.FlagSet) (e error) { cfg.BatchSize, e = fs.GetInt("batch-size"); return })
	set("checkpoint-every", func(fs *pflag.FlagSet) (e error) { cfg.CheckpointInterval, e = fs.GetInt("checkpoint-every"); return })
	set("include-coordinates", func(fs *pflag.FlagSet) (e error) {
		cfg.IncludeCoordinates, e = fs.GetBool("include-coordinates")
		return
	})

	return err
}

// Command mfkit fetches Indian mutual fund data from the command line.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seenimoa/mfkit/api"
	"github.com/seenimoa/mfkit/internal/client"
	"github.com/seenimoa/mfkit/internal/config"
	"github.com/seenimoa/mfkit/internal/constants"
	"github.com/seenimoa/mfkit/internal/infra"
	"github.com/seenimoa/mfkit/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global state set up by the root command.
var (
	cfg    *config.Config
	logger zerolog.Logger
	asJSON bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mfkit",
	Short: "mfkit — Indian mutual fund NAVs, history and reports",
	Long: `mfkit fetches Indian mutual fund data: scheme codes and latest NAVs
from the daily feed, NAV history and scheme details, category performance
reports, AMC profiles and quarterly average AUM.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		if p, _ := cmd.Flags().GetString("proxy-http"); p != "" {
			cfg.HTTP.Proxy.HTTP = p
		}
		if p, _ := cmd.Flags().GetString("proxy-https"); p != "" {
			cfg.HTTP.Proxy.HTTPS = p
		}
		logger = infra.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/mfkit.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("proxy-http", "", "proxy URL for http requests")
	rootCmd.PersistentFlags().String("proxy-https", "", "proxy URL for https requests")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadTable returns the configured constants table, or the embedded one.
func loadTable() (*constants.Table, error) {
	if cfg.Constants.Path != "" {
		return constants.Load(cfg.Constants.Path)
	}
	return constants.Default()
}

// newClient builds a client, downloading the scheme code snapshot.
func newClient(ctx context.Context) (*client.Client, error) {
	table, err := loadTable()
	if err != nil {
		return nil, fmt.Errorf("load constants: %w", err)
	}
	c, err := client.New(ctx, cfg, table, client.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("initialise client: %w", err)
	}
	return c, nil
}

// reportDateAt is the performance report date requested at now.
func reportDateAt(now time.Time) string {
	return utils.FormatReportDate(utils.ReportDate(now))
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mfkit %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.API.Port = port
		}
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		srv := api.NewServer(cfg, c, version, logger)
		return srv.ListenAndServe(cfg.API.Addr())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides api.port)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and data source status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  mfkit — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time (IST):    %s\n", utils.FormatDateTimeIST(utils.NowIST()))
		fmt.Printf("  Report date:   %s\n", reportDateAt(utils.NowIST()))
		fmt.Println()

		table, err := loadTable()
		if err != nil {
			return fmt.Errorf("load constants: %w", err)
		}
		source := cfg.Constants.Path
		if source == "" {
			source = "embedded"
		}
		fmt.Println("  Configuration:")
		fmt.Printf("    Constants:     %s\n", source)
		fmt.Printf("    Groups:        %v\n", table.GroupNames())
		fmt.Printf("    AMCs:          %d\n", len(table.AMC))
		fmt.Printf("    Timeout:       %s (scrape %s)\n", cfg.HTTP.Timeout, cfg.HTTP.ScrapeTimeout)
		fmt.Printf("    Rate limit:    %d req/s\n", cfg.HTTP.RateLimit)
		fmt.Printf("    Workers:       %d\n", cfg.Fetch.Workers)
		fmt.Printf("    API Server:    %s\n", cfg.API.Addr())
		fmt.Println()

		fmt.Println("  Proxies:")
		for _, p := range config.CheckProxies(cfg) {
			status := "not set"
			if p.IsSet {
				status = fmt.Sprintf("%s (%s)", p.Masked, p.Source)
			}
			fmt.Printf("    %-25s %s\n", p.Name+":", status)
		}
		fmt.Println()

		if check, _ := cmd.Flags().GetBool("check"); check {
			fmt.Println("  NAV feed:")
			c, err := newClient(cmd.Context())
			if err != nil {
				fmt.Printf("    unreachable: %v\n", err)
			} else {
				n, at := c.SnapshotInfo()
				fmt.Printf("    %d schemes at %s\n", n, utils.FormatDateTimeIST(at))
			}
			fmt.Println()
		}
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("check", false, "download the NAV feed to check connectivity")
}

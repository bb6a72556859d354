// File: main.go

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vpn-speedtest/pkg/config"
	"vpn-speedtest/pkg/database"
	"vpn-speedtest/pkg/metrics"
	"vpn-speedtest/pkg/models"
	"vpn-speedtest/pkg/report"
	"vpn-speedtest/pkg/tester"
)

var (
	debugFlag bool
	cfgFile   string
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vpn-speedtest",
	Short: "A tool for measuring internet speed through VPN locations",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set up logging based on the debug flag
		var logLevel slog.Level
		if debugFlag {
			logLevel = slog.LevelDebug
		} else {
			logLevel = slog.LevelInfo
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
		slog.SetDefault(logger)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Measure the speed without VPN and through every configured location",
	Long: `Run a speedtest without VPN, then connect to every location of the input
file in turn and measure through the tunnel. Locations that fail are skipped.
The report is written to the output path even if the run is interrupted.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings := mustLoadSettings()

		endpoints, err := config.LoadLocations(settings.Input)
		if err != nil {
			logger.Error("Error loading locations", "input", settings.Input, "error", err)
			os.Exit(1)
		}
		logger.Info("Loaded locations", "count", len(endpoints))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		recorder := metrics.NewRecorder()
		coordinator, err := newCoordinator(settings, recorder)
		if err != nil {
			logger.Error("Error setting up VPN controller", "error", err)
			os.Exit(1)
		}

		t := tester.New(coordinator, settings.Samples, logger)
		t.OnSkip = func(_ models.Endpoint, _ error) { recorder.LocationSkipped() }

		rep, err := t.Run(ctx, endpoints)
		if errors.Is(err, tester.ErrBaselineFailed) {
			logger.Error("Error running speed tests without VPN", "error", err)
			os.Exit(1)
		}
		interrupted := err != nil

		if err := report.Write(settings.Output, rep); err != nil {
			logger.Error("Error writing report", "output", settings.Output, "error", err)
			os.Exit(1)
		}
		logger.Info("Report written", "output", settings.Output, "locations", len(rep.VPNStats))

		// Persistence and metrics run after an interrupt too, so they get their own context.
		if settings.Database.Enabled {
			if err := saveReport(context.WithoutCancel(ctx), settings.Database, rep); err != nil {
				logger.Error("Error saving run to database", "error", err)
			}
		}
		if settings.Metrics.Textfile != "" {
			recorder.ObserveReport(rep)
			if err := recorder.WriteTextfile(settings.Metrics.Textfile); err != nil {
				logger.Error("Error writing metrics", "error", err)
			}
		}

		if err := report.Print(os.Stdout, rep); err != nil {
			logger.Error("Error printing report", "error", err)
		}

		if interrupted {
			logger.Warn("Run interrupted, report is partial")
			os.Exit(1)
		}
	},
}

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Measure the speed without VPN only",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings := mustLoadSettings()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		aggregator := newAggregator(settings, nil)
		m, err := aggregator.Aggregate(ctx, settings.Samples)
		if err != nil {
			logger.Error("Error running speed tests without VPN", "error", err)
			os.Exit(1)
		}
		printJSON(m)
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Run a single speedtest and print the parsed result",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings := mustLoadSettings()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		m, err := newProber(settings).MeasureOnce(ctx)
		if err != nil {
			logger.Error("Error running speedtest", "error", err)
			os.Exit(1)
		}
		printJSON(m)
	},
}

var historyCmd = &cobra.Command{
	Use:     "history [limit]",
	Short:   "Show the most recent runs stored in the database",
	Example: "history 5",
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		limit := 10
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				logger.Error("Invalid limit value", "limit", args[0])
				os.Exit(1)
			}
			limit = n
		}

		settings := mustLoadSettings()
		if !settings.Database.Enabled {
			logger.Error("Run history needs database.enabled")
			os.Exit(1)
		}

		db, err := database.NewDB(settings.Database.DSN())
		if err != nil {
			logger.Error("Error connecting to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		runs, err := db.RecentRuns(context.Background(), limit)
		if err != nil {
			logger.Error("Error reading run history", "error", err)
			os.Exit(1)
		}
		if len(runs) == 0 {
			logger.Info("No runs stored yet")
			return
		}
		for _, r := range runs {
			if err := report.Print(os.Stdout, r); err != nil {
				logger.Error("Error printing report", "error", err)
				os.Exit(1)
			}
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is ./config.yaml)")

	runCmd.Flags().StringP("input", "i", "input.json", "Locations file")
	runCmd.Flags().StringP("output", "o", "/app/output/output.json", "Report file")
	rootCmd.PersistentFlags().IntP("samples", "n", 5, "Speedtests per measurement")
	viper.BindPFlag("input", runCmd.Flags().Lookup("input"))
	viper.BindPFlag("output", runCmd.Flags().Lookup("output"))
	viper.BindPFlag("samples", rootCmd.PersistentFlags().Lookup("samples"))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(historyCmd)
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("Error reading .env file: %v\n", err)
		os.Exit(1)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.vpn-speedtest")
		viper.AddConfigPath("/etc/vpn-speedtest/")
	}

	viper.SetEnvPrefix("VPNSPEED")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		// Defaults and the environment are enough without a config file.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Printf("Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

func mustLoadSettings() config.Settings {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Error("Error loading settings", "error", err)
		os.Exit(1)
	}
	logger.Debug("Settings loaded", "config", viper.ConfigFileUsed())
	return settings
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Error("Error encoding result", "error", err)
		os.Exit(1)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

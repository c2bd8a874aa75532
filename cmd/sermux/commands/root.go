package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jhemmel/sermux/internal/config"
	"github.com/jhemmel/sermux/internal/device"
)

var (
	Version   = "dev"
	BuildTime string
)

var (
	cfgPath  string
	host     string
	port     int
	logLevel string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sermux",
	Short: "sermux is a client for a serial-over-TCP multiplexing daemon",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setup()
	},
}

func Execute() {
	// parse flags
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&host, "host", "", "daemon host (overrides config)")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "daemon TCP port (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	dumpCmd.Flags().BoolVar(&dumpAll, "all", false, "print every packet, not only data packets")
	dumpCmd.Flags().BoolVar(&dumpHex, "hex", false, "print payloads as hex")
	dumpCmd.Flags().StringVar(&dumpType, "type", "payload", "data representation: payload, raw, hdlc-raw or hdlc-dissected")
	dumpCmd.Flags().BoolVar(&dumpTx, "tx", false, "also subscribe to transmitted data")
	dumpCmd.Flags().BoolVar(&dumpInvalids, "invalids", false, "also subscribe to invalid frames")
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", 0, "browse duration (default 5s)")

	// add commands
	rootCmd.AddCommand(dumpCmd, watchCmd, lockCmd, releaseCmd, discoverCmd, versionCmd)

	// execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// setup resolves configuration (file, then environment, then flags) and
// installs the default logger.
func setup() {
	cfg = config.NewStore(cfgPath).Get()

	if v := os.Getenv("SERMUX_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("SERMUX_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	cfg.LogLevel = envStr("SERMUX_LOG_LEVEL", cfg.LogLevel)

	if host != "" {
		cfg.Host = host
	}
	if port != 0 {
		cfg.Port = port
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
}

func sessionOptions() []device.Option {
	return []device.Option{device.WithHost(cfg.Host), device.WithPort(cfg.Port)}
}

// interruptContext returns a context cancelled on SIGINT/SIGTERM.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// closeOnDone closes the session when ctx is cancelled, unblocking any
// iteration in progress.
func closeOnDone(ctx context.Context, s *device.Session) {
	go func() {
		<-ctx.Done()
		s.Close()
	}()
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

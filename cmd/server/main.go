// Command mini-rpc-server runs the echo example server: an RPC server with
// the echo/add/slow_operation/process_data/get_server_info methods
// registered, listening on the given port.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Jashshor/mini-rpc/config"
	"github.com/Jashshor/mini-rpc/examples"
	"github.com/Jashshor/mini-rpc/middleware"
	"github.com/Jashshor/mini-rpc/server"
)

var configPath string

func main() {
	cmd := &cobra.Command{
		Use:   "mini-rpc-server [port]",
		Short: "Run the mini-rpc echo example server",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run,
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a key=value config file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if len(args) == 1 {
		var port uint64
		if _, err := fmt.Sscanf(args[0], "%d", &port); err == nil {
			cfg.Port = uint16(port)
		}
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	svr := server.New(logger)
	svr.Use(middleware.Logging(logger))
	svr.Use(middleware.Timeout(time.Duration(cfg.TimeoutMs) * time.Millisecond))
	examples.Register(svr)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("starting mini-rpc echo server", zap.String("addr", addr))
	return svr.Serve("tcp", addr)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/geanlabs/lmdghost/config"
	"github.com/geanlabs/lmdghost/node"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Node config YAML file",
	}
	networkFlag = &cli.StringFlag{
		Name:  "network",
		Usage: "Network name used in gossip topics",
	}
	genesisTimeFlag = &cli.Uint64Flag{
		Name:  "genesis-time",
		Usage: "Genesis time (unix timestamp)",
	}
	listenFlag = &cli.StringSliceFlag{
		Name:  "listen",
		Usage: "Listen multiaddr (repeatable)",
	}
	bootnodesFlag = &cli.StringFlag{
		Name:  "bootnodes",
		Usage: "Comma-separated bootnode multiaddrs or ENRs",
	}
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the block store and node key (in-memory when empty)",
	}
	metricsAddrFlag = &cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "Prometheus metrics listen address (disabled when empty)",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level (debug, info, warn, error)",
	}
)

func main() {
	app := &cli.App{
		Name:  "ghostd",
		Usage: "runs an LMD-GHOST fork choice node",
		Flags: []cli.Flag{
			configFlag,
			networkFlag,
			genesisTimeFlag,
			listenFlag,
			bootnodesFlag,
			dataDirFlag,
			metricsAddrFlag,
			logLevelFlag,
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ghostd: %v\n", err)
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	cfg, err := loadConfig(cliCtx)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))

	var bootnodes []string
	if cfg.Bootnodes != "" {
		bootnodes, err = config.LoadBootnodes(cfg.Bootnodes)
		if err != nil {
			return err
		}
	}
	if s := cliCtx.String(bootnodesFlag.Name); s != "" {
		for _, addr := range strings.Split(s, ",") {
			addr = strings.TrimSpace(addr)
			if err := config.ValidateBootnode(addr); err != nil {
				return fmt.Errorf("--%s: %w", bootnodesFlag.Name, err)
			}
			bootnodes = append(bootnodes, addr)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := node.New(ctx, node.Config{
		Node:      cfg,
		Bootnodes: bootnodes,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}
	n.Start()

	logger.Info("ghostd running",
		"slot", n.CurrentSlot(),
		"peers", n.PeerCount(),
	)

	<-ctx.Done()
	logger.Info("shutting down...")
	n.Stop()
	return nil
}

// loadConfig reads --config when given and applies flag overrides on top.
func loadConfig(cliCtx *cli.Context) (config.NodeConfig, error) {
	cfg := config.DefaultNodeConfig()
	if path := cliCtx.String(configFlag.Name); path != "" {
		var err error
		if cfg, err = config.LoadNodeConfig(path); err != nil {
			return cfg, err
		}
	}
	if cliCtx.IsSet(networkFlag.Name) {
		cfg.Network = cliCtx.String(networkFlag.Name)
	}
	if cliCtx.IsSet(genesisTimeFlag.Name) {
		cfg.GenesisTime = cliCtx.Uint64(genesisTimeFlag.Name)
	}
	if cliCtx.IsSet(listenFlag.Name) {
		cfg.ListenAddrs = cliCtx.StringSlice(listenFlag.Name)
	}
	if cliCtx.IsSet(dataDirFlag.Name) {
		cfg.DataDir = cliCtx.String(dataDirFlag.Name)
	}
	if cliCtx.IsSet(metricsAddrFlag.Name) {
		cfg.MetricsAddr = cliCtx.String(metricsAddrFlag.Name)
	}
	if cliCtx.IsSet(logLevelFlag.Name) {
		cfg.LogLevel = cliCtx.String(logLevelFlag.Name)
	}
	if cfg.GenesisTime == 0 {
		return cfg, fmt.Errorf("genesis time is required (--%s or genesis_time)", genesisTimeFlag.Name)
	}
	return cfg, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

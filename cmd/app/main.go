package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/labelvault/internal"
	pkgconfig "github.com/starford/labelvault/pkg/config"
)

var version = "dev"

const defaultConfigPath = "config/config.yaml"

// loadConfig reads the config file named by --config. A missing file is
// only an error when the flag was given explicitly; otherwise defaults apply.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	root := cmd.Root()
	configPath := root.String("config")

	cfg := internal.NewDefaultConfig()
	err := pkgconfig.Load(configPath, cfg)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !root.IsSet("config"):
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid default config: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if dir := root.String("data-dir"); dir != "" {
		cfg.Wallet.DataDir = dir
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "labelvault",
		Usage:   "Wallet label store for BIP-329 labels with HTTP, MCP and command line access",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigPath,
				Value:       defaultConfigPath,
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Wallet data directory holding labels.jsonl (overrides config)",
				Sources: cli.EnvVars("LABELVAULT_DATA_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with live events (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve label tools over MCP stdio",
				Action: serveMCP,
			},
			getCommand(),
			setCommand(),
			listCommand(),
			importCommand(),
			exportCommand(),
			doctorCommand(),
		},
	}
}

func main() {
	cmd := newCommand()
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

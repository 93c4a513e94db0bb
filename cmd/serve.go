package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/aetharaai/lotus"
	"github.com/aetharaai/lotus/core"
	"github.com/aetharaai/lotus/logging"
	"github.com/aetharaai/lotus/memory"
	"github.com/aetharaai/lotus/model/anthropic"
	"github.com/aetharaai/lotus/model/openai"
	"github.com/aetharaai/lotus/tool"
	"github.com/aetharaai/lotus/transport/mqtt"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect to the broker and serve inbound events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to lotusd.yaml")

	return cmd
}

func serve(ctx context.Context, cfg Config) error {
	logger := logging.New(&logging.Config{
		Level:     parseLevel(cfg.Log.Level),
		Format:    cfg.Log.Format,
		Output:    os.Stdout,
		Component: "lotusd",
	})

	completer, err := buildCompleter(cfg)
	if err != nil {
		return err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}

	// The transport's handlers capture app, which is constructed right after;
	// no message flows until Start.
	var app *lotus.Lotus
	tr := mqtt.New(mqtt.Config{
		Broker:   cfg.Broker.URL,
		ClientID: cfg.Broker.ClientID,
		Username: cfg.Broker.Username,
		Password: cfg.Broker.Password,
	}, mqtt.Handlers{
		OnInboundEvent: func(ev core.InboundEvent) { app.Handle(ev) },
		OnToolResult:   func(ev core.ToolResultEvent) { app.DeliverToolResult(ev) },
	}, logger)

	app = lotus.New(func(o *lotus.Options) {
		o.Completer = completer
		o.MemoryStore = store
		o.Publisher = tr
		o.MaxIterations = cfg.Loop.MaxIterations
		o.Logger = logger
	})

	for _, t := range []tool.Tool{tool.Calculator(), tool.Clock(), tool.MemorySearch(store), tool.MemoryWrite(store)} {
		if err := app.RegisterTool(t); err != nil {
			return fmt.Errorf("register tool %s: %w", t.Name, err)
		}
	}
	app.Freeze()

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tr.Start(runCtx); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}
	logger.Info("lotusd serving", "broker", cfg.Broker.URL, "provider", cfg.Model.Provider)

	<-runCtx.Done()
	logger.Info("shutting down")

	return tr.Stop(context.Background())
}

func buildCompleter(cfg Config) (core.Completer, error) {
	switch cfg.Model.Provider {
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			if cfg.Model.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Model.Name)
			}
			o.APIKey = cfg.Model.APIKey
		}), nil
	case "openai":
		return openai.New(func(o *openai.Options) {
			if cfg.Model.Name != "" {
				o.Model = cfg.Model.Name
			}
		}), nil
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Model.Provider)
	}
}

func buildStore(cfg Config) (core.MemoryStore, error) {
	if cfg.Memory.Path == "" {
		return memory.NewInMemoryStore(), nil
	}
	store, err := memory.NewSQLiteStore(cfg.Memory.Path)
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	return store, nil
}

func parseLevel(s string) logging.LogLevel {
	switch s {
	case "debug":
		return logging.LogLevelDebug
	case "warn":
		return logging.LogLevelWarn
	case "error":
		return logging.LogLevelError
	default:
		return logging.LogLevelInfo
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"entropy/local-app/src/pkg/adapter"
	"entropy/local-app/src/pkg/cli"
	"entropy/local-app/src/pkg/config"
	"entropy/local-app/src/pkg/data"
	"entropy/local-app/src/pkg/log"
	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/session"
	"entropy/local-app/src/pkg/storage"
)

// app holds the initialized components in start order
type app struct {
	cfg            *model.Config
	logger         *log.Logger
	storage        *storage.Storage
	dataManager    *data.DataManager
	sessionManager *session.SessionManager
	adapterManager *adapter.AdapterManager
}

// flagOverrides binds the command line flags that replace config values.
// Only flags given explicitly count as set.
func flagOverrides(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	bindings := map[string]string{"log_level": "log-level", "http_addr": "addr"}
	for key, name := range bindings {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}
	return v, nil
}

// bootstrap loads the configuration and initializes logger, storage, data
// manager, session manager and adapter manager. Call close when done.
func bootstrap(cmd *cobra.Command, opts *options) (*app, error) {
	config.SetPath(opts.configPath)
	config.SetEnvFile(opts.envFile)
	if err := config.ConfigLoad(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := config.ConfigGet()

	overrides, err := flagOverrides(cmd)
	if err != nil {
		return nil, err
	}
	if overrides.IsSet("log_level") {
		cfg.LogLevel = overrides.GetString("log_level")
	}
	if overrides.IsSet("http_addr") {
		cfg.HTTPAddr = overrides.GetString("http_addr")
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger, err := log.NewLogger(cfg, level)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger}
	ctx := context.Background()
	logger.Info(ctx, "Application started", log.Fields{"version": version, "config": config.Path()})

	a.storage, err = storage.NewStorage(cfg, logger)
	if err != nil {
		logger.Error(ctx, "Failed to initialize storage", log.Fields{"error": err})
		a.close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info(ctx, "Storage initialized", nil)

	a.dataManager, err = data.NewDataManager(data.Stores{Mindmaps: a.storage, Settings: a.storage}, cfg, nil, logger)
	if err != nil {
		logger.Error(ctx, "Failed to initialize data manager", log.Fields{"error": err})
		a.close()
		return nil, fmt.Errorf("failed to initialize data manager: %w", err)
	}
	logger.Info(ctx, "Data manager initialized", nil)

	a.sessionManager = session.NewSessionManager(a.dataManager, logger)
	a.adapterManager = adapter.NewAdapterManager(a.sessionManager, logger)
	a.adapterManager.AdapterRegister("cli", adapter.CLIFactory(logger))
	a.adapterManager.AdapterRegister("http", adapter.HTTPFactory(cfg.HTTPAddr, cfg.DatabaseDir, logger))
	logger.Info(ctx, "Adapter manager initialized", nil)

	return a, nil
}

// close stops the components in reverse start order
func (a *app) close() {
	ctx := context.Background()
	if a.adapterManager != nil {
		a.adapterManager.Shutdown()
	}
	if a.sessionManager != nil {
		a.sessionManager.Shutdown()
	}
	if a.dataManager != nil {
		a.dataManager.Close()
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Error(ctx, "Failed to close storage", log.Fields{"error": err})
		}
	}
	a.logger.Info(ctx, "Application shutting down", nil)
	if err := a.logger.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close logger: %v\n", err)
	}
}

// startHTTP adds and starts the HTTP adapter
func (a *app) startHTTP() (*adapter.HTTPAdapter, error) {
	gin.SetMode(gin.ReleaseMode)
	instance, err := a.adapterManager.AdapterAdd("http")
	if err != nil {
		return nil, err
	}
	h := instance.(*adapter.HTTPAdapter)
	if err := h.AdapterStart(); err != nil {
		return nil, err
	}
	return h, nil
}

// runShell runs the scripts and then the interactive shell
func runShell(cmd *cobra.Command, opts *options, scripts []string) error {
	a, err := bootstrap(cmd, opts)
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()

	if opts.serveHTTP {
		h, err := a.startHTTP()
		if err != nil {
			return err
		}
		fmt.Printf("HTTP API listening on %s\n", h.Addr())
	}

	instance, err := a.adapterManager.AdapterAdd("cli")
	if err != nil {
		return err
	}
	cliAdapter := instance.(*adapter.CLIAdapter)
	if err := cliAdapter.AdapterStart(); err != nil {
		return fmt.Errorf("failed to start CLI adapter: %w", err)
	}

	shell, err := cli.NewCLI(cliAdapter, os.Stdout, a.logger)
	if err != nil {
		return err
	}
	defer shell.Close()

	for _, script := range scripts {
		exit, err := shell.RunScript(ctx, script)
		if err != nil {
			a.logger.Error(ctx, "Script failed", log.Fields{"file": script, "error": err})
			return fmt.Errorf("script %s: %w", script, err)
		}
		if exit {
			return nil
		}
	}

	if err := shell.Run(ctx, a.cfg.HistoryFile); err != nil {
		a.logger.Error(ctx, "CLI error", log.Fields{"error": err})
		return fmt.Errorf("CLI error: %w", err)
	}
	fmt.Println("Goodbye!")
	return nil
}

// runServe serves the HTTP API until ctx is done
func runServe(cmd *cobra.Command, opts *options) error {
	a, err := bootstrap(cmd, opts)
	if err != nil {
		return err
	}
	defer a.close()

	h, err := a.startHTTP()
	if err != nil {
		return err
	}
	fmt.Printf("HTTP API listening on %s\n", h.Addr())

	<-cmd.Context().Done()
	a.logger.Info(context.Background(), "Received interrupt signal. Shutting down...", nil)
	fmt.Println("\nShutting down...")
	return nil
}

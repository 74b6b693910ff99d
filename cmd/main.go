package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/soundsift/soundsift/internal/services"
	"github.com/soundsift/soundsift/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	if os.Getenv("SOUNDSIFT_DEBUG") != "" {
		shared.SetLogLevel(logger, log.DebugLevel)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var proxy *services.ProxyClient
	if config.Proxy.BaseURL != "" {
		timeout := 30 * time.Second
		if config.Proxy.TimeoutSecs > 0 {
			timeout = time.Duration(config.Proxy.TimeoutSecs) * time.Second
		}
		proxy = services.NewProxyClient(config.Proxy.BaseURL, config.Proxy.Token, &http.Client{Timeout: timeout})
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Proxy:  proxy,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "soundsift",
		Usage:    "Find, compare, and clean up duplicate tracks across music catalogs",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

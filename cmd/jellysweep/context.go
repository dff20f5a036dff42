package main

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"jellysweep/internal/config"
	"jellysweep/internal/logging"
	"jellysweep/internal/services/jellyfin"
)

type serverFlags struct {
	url      string
	apiKey   string
	insecure bool
	timeout  int
}

type commandContext struct {
	serverFlags *serverFlags
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
	logger     *slog.Logger
}

func newCommandContext(serverFlags *serverFlags, configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		serverFlags: serverFlags,
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

// ensureConfig loads the config file once and overlays the server flags on
// top of it. Flags always win over file values.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}

		if flags := c.serverFlags; flags != nil {
			if url := strings.TrimSpace(flags.url); url != "" {
				cfg.Server.URL = strings.TrimRight(url, "/")
			}
			if key := strings.TrimSpace(flags.apiKey); key != "" {
				cfg.Server.APIKey = key
			}
			if flags.insecure {
				cfg.Server.Insecure = true
			}
			if flags.timeout > 0 {
				cfg.Server.TimeoutSeconds = flags.timeout
			}
		}

		verbose := c.verboseFlag != nil && *c.verboseFlag
		logger, err := logging.NewFromConfig(cfg, verbose)
		if err != nil {
			c.configErr = err
			return
		}

		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) loggerValue() *slog.Logger {
	if _, err := c.ensureConfig(); err != nil || c.logger == nil {
		return logging.NewNop()
	}
	return c.logger
}

// client builds the Jellyfin API client from the merged configuration.
func (c *commandContext) client() (*jellyfin.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Server.URL == "" {
		return nil, errors.New("server URL is required (--url flag or server.url in the config file)")
	}
	if cfg.Server.APIKey == "" {
		return nil, errors.New("API key is required (--api-key flag or server.api_key in the config file)")
	}

	return jellyfin.New(cfg.Server.URL, cfg.Server.APIKey, jellyfin.Options{
		Timeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		Insecure: cfg.Server.Insecure,
		Logger:   c.loggerValue(),
	}), nil
}

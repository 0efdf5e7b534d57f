package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/riskibarqy/topps-now-tracker/internal/app"
	"github.com/riskibarqy/topps-now-tracker/internal/config"
	"github.com/riskibarqy/topps-now-tracker/internal/observability"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
)

type commandContext struct {
	envFileFlag *string

	configOnce sync.Once
	config     config.Config
	configErr  error

	logger   *logging.Logger
	app      *app.App
	shutdown []func(context.Context) error
}

func newCommandContext(envFileFlag *string) *commandContext {
	return &commandContext{envFileFlag: envFileFlag}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		if c.envFileFlag != nil {
			if path := strings.TrimSpace(*c.envFileFlag); path != "" {
				if err := os.Setenv("ENV_FILE", path); err != nil {
					c.configErr = fmt.Errorf("set ENV_FILE: %w", err)
					return
				}
			}
		}
		cfg, err := config.Load()
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		c.config = cfg
		c.logger = logging.New(logging.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Output: os.Stderr,
		}).With("service", cfg.ServiceName, "env", cfg.AppEnv)
		logging.SetDefault(c.logger)
	})
	return c.config, c.configErr
}

// ensureApp wires the pipeline once per invocation. Tracing is started here
// so one-shot step runs are traced the same way as scheduled ones.
func (c *commandContext) ensureApp(ctx context.Context, opts app.Options) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	shutdownTracing, err := observability.InitUptrace(cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	c.shutdown = append(c.shutdown, shutdownTracing)

	a, err := app.New(ctx, cfg, c.logger, opts)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *commandContext) close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	if c.app != nil {
		errs = append(errs, c.app.Close())
		c.app = nil
	}
	for i := len(c.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, c.shutdown[i](context.WithoutCancel(ctx)))
	}
	c.shutdown = nil
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	return errors.Join(errs...)
}

// withApp runs fn against a wired app and releases it afterwards.
func (c *commandContext) withApp(ctx context.Context, opts app.Options, fn func(*app.App) error) (err error) {
	a, err := c.ensureApp(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, c.close(ctx))
	}()
	return fn(a)
}

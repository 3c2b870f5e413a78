/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package operator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/utils/clock"
	"knative.dev/pkg/logging"

	"github.com/azure/batch-pool-functions/pkg/apis/settings"
	"github.com/azure/batch-pool-functions/pkg/auth"
	"github.com/azure/batch-pool-functions/pkg/functions"
	"github.com/azure/batch-pool-functions/pkg/providers/pool"
)

const (
	// set by the Functions host for custom handlers
	portEnv     = "FUNCTIONS_CUSTOMHANDLER_PORT"
	logLevelEnv = "LOG_LEVEL"

	defaultPort     = "8080"
	shutdownTimeout = 10 * time.Second
)

// Options are the process flags. Flags win over the environment.
type Options struct {
	Port     string
	LogLevel string
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Port, "port", envOrDefault(portEnv, defaultPort), "port the custom handler listens on")
	fs.StringVar(&o.LogLevel, "log-level", envOrDefault(logLevelEnv, "info"), "log level, one of debug, info, warn, error")
}

// Operator serves the pool functions for the Functions host.
type Operator struct {
	Options  *Options
	Settings *settings.Settings
	Provider *pool.Provider
	Clock    clock.Clock

	// CreateHandler and DeleteHandler serve the functions, or the configuration error that
	// disabled them.
	CreateHandler http.Handler
	DeleteHandler http.Handler

	server *http.Server
}

// NewOperator wires the pool functions. Configuration problems do not stop the process, the
// affected function answers every invocation with the configuration error instead.
func NewOperator(ctx context.Context, opts *Options) (context.Context, *Operator, error) {
	logger, err := newLogger(opts.LogLevel)
	if err != nil {
		return ctx, nil, err
	}
	ctx = logging.WithLogger(ctx, logger)

	op := &Operator{
		Options: opts,
		Clock:   clock.RealClock{},
	}

	var createHandler, deleteHandler http.Handler
	s, err := settings.Load()
	if err != nil {
		logger.Errorf("loading pool settings, %s", err)
		createHandler = functions.NewConfigurationErrorHandler(err)
		deleteHandler = createHandler
	}
	op.Settings = s

	azConfig, err := auth.BuildBatchConfig()
	if err != nil {
		logger.Errorf("creating Batch config, %s", err)
		createHandler = functions.NewConfigurationErrorHandler(err)
		deleteHandler = createHandler
	}

	if createHandler == nil {
		azClient, err := pool.NewAZClient(ctx, azConfig)
		if err != nil {
			logger.Errorf("creating Batch client, %s", err)
			createHandler = functions.NewConfigurationErrorHandler(err)
			deleteHandler = createHandler
		} else {
			op.Provider = pool.NewProvider(azClient)
			createHandler = op.newCreateHandler(ctx)
			deleteHandler = op.newDeleteHandler(ctx)
		}
	}

	op.CreateHandler, op.DeleteHandler = createHandler, deleteHandler
	op.server = &http.Server{
		Addr:              net.JoinHostPort("", opts.Port),
		Handler:           functions.NewRouter(ctx, createHandler, deleteHandler),
		ReadHeaderTimeout: 30 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	return ctx, op, nil
}

func (o *Operator) newCreateHandler(ctx context.Context) http.Handler {
	h, err := functions.NewCreateHandler(o.Provider, o.Settings, o.Clock)
	if err != nil {
		logging.FromContext(ctx).With("function", functions.CreateFunctionName).Errorf("%s", err)
		return functions.NewConfigurationErrorHandler(err)
	}
	return h
}

func (o *Operator) newDeleteHandler(ctx context.Context) http.Handler {
	h, err := functions.NewDeleteHandler(o.Provider, o.Settings, o.Clock)
	if err != nil {
		logging.FromContext(ctx).With("function", functions.DeleteFunctionName).Errorf("%s", err)
		return functions.NewConfigurationErrorHandler(err)
	}
	return h
}

// Handler returns the routed functions.
func (o *Operator) Handler() http.Handler {
	return o.server.Handler
}

// Start serves until ctx is done, then drains in-flight invocations.
func (o *Operator) Start(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", o.server.Addr)
		errCh <- o.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving functions, %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := o.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down, %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level, %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar().Named("batch-pool-functions"), nil
}

func envOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

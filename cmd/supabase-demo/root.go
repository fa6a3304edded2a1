package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/supabase-go/v1/auth"
	"github.com/Aleph-Alpha/supabase-go/v1/logger"
	"github.com/Aleph-Alpha/supabase-go/v1/metrics"
	"github.com/Aleph-Alpha/supabase-go/v1/supabase"
	"github.com/Aleph-Alpha/supabase-go/v1/tracer"
)

var (
	projectURL  string
	apiKey      string
	logLevel    string
	redisAddr   string
	metricsAddr string
	traceExport bool
)

// Process-wide state set up in the root pre-run hook.
var (
	log     *logger.Logger
	traces  *tracer.Tracer
	baseCtx = context.Background()
	endSpan = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "supabase-demo",
	Short: "Talk to a Supabase project from the terminal.",
	Long: `Talk to a Supabase project from the terminal.

  The project URL and key default to SUPABASE_URL and SUPABASE_KEY. Pass
  --redis to keep the session between invocations; without it every command
  starts signed out.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logger.NewLoggerClient(logger.Config{
			Level:         logLevel,
			EnableTracing: traceExport,
			ServiceName:   "supabase-demo",
		})
		if traceExport {
			traces = tracer.NewClient(tracer.Config{
				ServiceName:  "supabase-demo",
				AppEnv:       os.Getenv("APP_ENV"),
				EnableExport: true,
			}, log)
			ctx, span := traces.StartSpan(context.Background(), "supabase-demo "+cmd.Name())
			traces.SetAttributes(span, map[string]interface{}{"args": len(args)})
			baseCtx = ctx
			endSpan = func() { span.End() }
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		endSpan()
		if traces != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return traces.Shutdown(ctx)
		}
		return nil
	},
}

func Execute() error {
	cfg := supabase.NewConfig()

	rootCmd.PersistentFlags().StringVar(&projectURL, "url", cfg.URL, "project URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "key", cfg.APIKey, "anon or service_role key")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logger.Warning, "debug, info, warning or error")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", os.Getenv("SUPABASE_DEMO_REDIS_ADDR"), "redis address for session persistence")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics", "", "serve Prometheus metrics on this address, e.g. :9090")
	rootCmd.PersistentFlags().BoolVar(&traceExport, "trace", false, "export an OTLP trace of the command")

	rootCmd.AddCommand(signUpCommand())
	rootCmd.AddCommand(signInCommand())
	rootCmd.AddCommand(signOutCommand())
	rootCmd.AddCommand(whoAmICommand())
	rootCmd.AddCommand(otpCommand())
	rootCmd.AddCommand(oauthCommand())
	rootCmd.AddCommand(guestbookCommand())
	rootCmd.AddCommand(chatCommand())
	rootCmd.AddCommand(queryCommand())
	return rootCmd.Execute()
}

// newClient builds the project client from the persistent flags.
func newClient() (*supabase.Client, error) {
	cfg := supabase.NewConfig()
	cfg.URL = projectURL
	cfg.APIKey = apiKey
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		cfg.Auth.Store = auth.NewRedisStore(rdb, auth.RedisStoreOptions{Prefix: "supabase-demo:"})
	}

	client, err := supabase.NewClient(*cfg)
	if err != nil {
		return nil, err
	}
	client.WithLogger(log)

	if metricsAddr != "" {
		m := metrics.NewMetrics(metrics.Config{
			Address:                 metricsAddr,
			EnableDefaultCollectors: true,
			ServiceName:             "supabase-demo",
		})
		go func() {
			if err := m.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("metrics server stopped", err)
			}
		}()
		client.WithObserver(m)
	}
	return client, nil
}

// signalContext is cancelled on interrupt. It carries the command span when
// tracing is on.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(baseCtx, os.Interrupt, syscall.SIGTERM)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func errf(w io.Writer, msg string, args ...interface{}) {
	fmt.Fprintf(w, msg, args...)
	if len(msg) == 0 || msg[len(msg)-1] != '\n' {
		fmt.Fprint(w, "\n")
	}
}

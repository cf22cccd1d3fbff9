// Command pardigest prints BLAKE2b-256 digests of files, hashing them on a
// pool of workers while keeping the output in input order.
//
//	pardigest [flags] [paths...]
//
// With no paths, or the single path "-", paths are read from stdin, one per
// line. Each output line is "<hex digest>  <path>".
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/adamthedash/iterators/config"
	"github.com/adamthedash/iterators/logger"
	"github.com/adamthedash/iterators/observability"
	"github.com/adamthedash/iterators/pipeline"
	"github.com/adamthedash/iterators/version"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

// flushTimeout bounds the telemetry flush on exit.
const flushTimeout = 5 * time.Second

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type cliFlags struct {
	fs         *pflag.FlagSet
	configFile string
	envFile    string
	version    bool
}

func newFlags(stderr io.Writer) *cliFlags {
	f := &cliFlags{fs: pflag.NewFlagSet(appName, pflag.ContinueOnError)}
	f.fs.SetOutput(stderr)
	f.fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] [paths...]\n\nFlags:\n", appName)
		f.fs.PrintDefaults()
	}

	def := defaultConfig()
	f.fs.StringVarP(&f.configFile, "config", "c", "", "config file (default: ./pardigest.yml)")
	f.fs.StringVar(&f.envFile, "env-file", "", ".env file to load (default: ./.env)")
	f.fs.BoolVar(&f.version, "version", false, "print version information and exit")

	f.fs.IntP("workers", "j", def.Parmap.Workers, "number of hashing workers")
	f.fs.Int("admission-buffer", def.Parmap.Workers, "queued files beyond one per worker")
	f.fs.Duration("timeout", 0, "per-file timeout, 0 for none")
	f.fs.Int("attempts", def.Retry.MaxAttempts, "attempts per file, including the first")
	f.fs.Int("buffer-size", def.BufferSize, "per-worker read buffer in bytes")
	f.fs.Bool("keep-going", def.KeepGoing, "log failed files and continue")
	f.fs.String("log-level", "info", "log level: debug, info, warn, error")
	f.fs.String("log-format", logger.FormatConsole, "log format: console, json, pretty")
	f.fs.String("otlp-endpoint", "", "OTLP/HTTP collector host:port; empty disables export")
	f.fs.Bool("otlp-insecure", false, "send OTLP without TLS")
	return f
}

// execute runs pardigest and returns its exit code.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := newFlags(stderr)
	if err := flags.fs.Parse(args); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if flags.version {
		fmt.Fprintln(stdout, version.Get().String())
		return exitOK
	}

	cfg := defaultConfig()
	err := config.Load(appName, &cfg,
		config.WithEnvPrefix(envPrefix),
		config.WithConfigFile(flags.configFile),
		config.WithEnvFile(flags.envFile),
		config.WithFlags(flags.fs, flagKeys),
	)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return exitUsage
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return exitUsage
	}

	log := logger.NewWithWriter(&cfg.Logging, cfg.Name, stderr)
	logger.SetGlobalLogger(log)

	info := version.Get()
	cfg.Telemetry.ServiceVersion = info.Version
	shutdown, err := observability.Init(ctx, cfg.Telemetry)
	if err != nil {
		log.Error("telemetry init failed", logger.ErrorFields("init", err))
		return exitFailed
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Warn("telemetry shutdown failed", logger.ErrorFields("shutdown", err))
		}
	}()

	paths := pipeline.FromSlice(flags.fs.Args())
	if n := flags.fs.NArg(); n == 0 || (n == 1 && flags.fs.Arg(0) == "-") {
		paths = lines(stdin)
	}

	return runTask(ctx, log, func(ctx context.Context) int {
		ctx, span := observability.StartSpan(ctx, observability.SpanDigest)
		defer span.End()

		start := time.Now()
		sum, err := digestAll(ctx, cfg, paths, stdout, log)
		observability.SetSpanAttribute(ctx, "digest.hashed", sum.Hashed)
		observability.SetSpanAttribute(ctx, "digest.failed", sum.Failed)

		fields := logger.DurationFields("digest", time.Since(start))
		fields["hashed"] = sum.Hashed
		fields["failed"] = sum.Failed
		log.WithContext(ctx).Info("digest finished", fields)
		if err != nil {
			observability.SetSpanError(ctx, err)
			log.WithContext(ctx).Error("digest stopped", logger.MergeWithError(fields, err))
			return exitFailed
		}
		if sum.Failed > 0 {
			return exitFailed
		}
		return exitOK
	})
}

// runTask runs task with a context that is cancelled on SIGINT or SIGTERM.
func runTask(ctx context.Context, log *logger.Logger, task func(ctx context.Context) int) int {
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.Info("received signal, canceling", map[string]any{"signal": sig.String()})
			cancel()
		case <-taskCtx.Done():
		}
	}()

	return task(taskCtx)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/landlord"
	"github.com/dmitrymomot/landlord/pkg/config"
	"github.com/dmitrymomot/landlord/pkg/logger"
	"github.com/dmitrymomot/landlord/pkg/otel"
	"github.com/dmitrymomot/landlord/pkg/redis"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage error")

type result struct {
	Command  string `json:"command" yaml:"command"`
	Key      string `json:"key,omitempty" yaml:"key,omitempty"`
	TenantID string `json:"tenant_id,omitempty" yaml:"tenant_id,omitempty"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	Status   string `json:"status,omitempty" yaml:"status,omitempty"`
}

type flags struct {
	cache    string
	output   string
	logLevel string
	envFile  string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("landlord", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var f flags
	fs.StringVar(&f.cache, "cache", "lru", "cache backend: lru or redis")
	fs.StringVar(&f.output, "o", "text", "output format: text, json or yaml")
	fs.StringVar(&f.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	fs.StringVar(&f.envFile, "env-file", "", "dotenv file to load (default: .env if present)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: landlord [flags] tenant-id <domain> | tenant-url <tenant id> | ping")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if err := validateFlags(f); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	command, key, err := parseCommand(fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fs.Usage()
		return exitUsage
	}

	log := logger.New(
		logger.WithFormat(logger.FormatText),
		logger.WithLevel(logger.ParseLevel(f.logLevel)),
		logger.WithOutput(stderr),
		logger.WithAttr(logger.Component("cli")),
		logger.WithContextExtractors(landlord.LoggerExtractor()),
	)

	res, err := execute(ctx, f, command, key, log)
	if err != nil {
		log.DebugContext(ctx, "command failed", logger.Operation(command), logger.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	if err := writeResult(stdout, f.output, res); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

func validateFlags(f flags) error {
	switch f.cache {
	case "lru", "redis":
	default:
		return fmt.Errorf("%w: -cache must be lru or redis, got %q", errUsage, f.cache)
	}
	switch f.output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("%w: -o must be text, json or yaml, got %q", errUsage, f.output)
	}
	return nil
}

func parseCommand(args []string) (command, key string, err error) {
	if len(args) == 0 {
		return "", "", fmt.Errorf("%w: missing command", errUsage)
	}

	command = args[0]
	switch command {
	case "tenant-id", "tenant-url":
		if len(args) != 2 {
			return "", "", fmt.Errorf("%w: %s takes exactly one argument", errUsage, command)
		}
		return command, args[1], nil
	case "ping":
		if len(args) != 1 {
			return "", "", fmt.Errorf("%w: ping takes no arguments", errUsage)
		}
		return command, "", nil
	default:
		return "", "", fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func execute(ctx context.Context, f flags, command, key string, log *slog.Logger) (result, error) {
	var loadOpts []config.LoadOption
	if f.envFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFiles(f.envFile))
	}

	cfg, err := landlord.LoadConfig(loadOpts...)
	if err != nil {
		return result{}, fmt.Errorf("load config: %w", err)
	}

	var otelCfg otel.Config
	if err := config.Load(&otelCfg, loadOpts...); err != nil {
		return result{}, fmt.Errorf("load tracing config: %w", err)
	}
	shutdown, err := otel.Setup(ctx, "landlord-cli", otelCfg)
	if err != nil {
		return result{}, err
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			log.WarnContext(ctx, "flush traces", logger.Error(err))
		}
	}()

	opts := []landlord.Option{landlord.WithLogger(log)}
	var cacheCheck func(context.Context) error
	if f.cache == "redis" {
		var redisCfg redis.Config
		if err := config.Load(&redisCfg, loadOpts...); err != nil {
			return result{}, fmt.Errorf("load redis config: %w", err)
		}
		rdb, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return result{}, fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = rdb.Close() }()
		opts = append(opts, landlord.WithCache(landlord.NewRedisCache(rdb)))
		cacheCheck = redis.Healthcheck(rdb)
	}

	client, err := landlord.NewFromConfig(cfg, opts...)
	if err != nil {
		return result{}, err
	}
	defer func() { _ = client.Close() }()

	res := result{Command: command, Key: key}
	switch command {
	case "tenant-id":
		res.TenantID, err = client.LookupTenantID(ctx, key)
	case "tenant-url":
		res.TenantID = key
		res.URL, err = client.LookupTenantURL(ctx, key)
	case "ping":
		res.Key = cfg.Endpoint
		err = client.ValidateConfiguration(ctx)
		if err == nil && cacheCheck != nil {
			err = cacheCheck(ctx)
		}
		if err == nil {
			res.Status = "OK"
		}
	}
	if err != nil {
		return result{}, err
	}
	return res, nil
}

func writeResult(w io.Writer, format string, res result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()
		return enc.Encode(res)
	}

	var line string
	switch res.Command {
	case "tenant-id":
		line = res.TenantID
	case "tenant-url":
		line = res.URL
	default:
		line = res.Status
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

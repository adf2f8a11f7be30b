package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/target/trendscout/config"
	"github.com/target/trendscout/internal/bootstrap"
	"github.com/target/trendscout/internal/data"
	"github.com/target/trendscout/internal/domain/model"
	"github.com/target/trendscout/internal/domain/schedule"
	apperrors "github.com/target/trendscout/internal/errors"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
}

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultRunTimeout       = 30 * time.Minute
)

func main() {
	logger := bootstrap.InitLogger("info")

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	logger = bootstrap.InitLogger(cfg.Observability.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Out:    os.Stdout,
	}
	runErr := cmd.run(cmdCtx, os.Args[2:])
	stop()
	if runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrations,
		},
		"tick": {
			name:        "tick",
			description: "Run one dispatcher tick now (or at --at) and print the result",
			run:         runTick,
		},
		"run": {
			name:        "run",
			description: "Run the trend analysis workflow for a business description",
			run:         runWorkflow,
		},
		"get-run": {
			name:        "get-run",
			description: "Print a stored workflow run summary",
			run:         runGetRun,
		},
		"subscribe": {
			name:        "subscribe",
			description: "Create or update a user's daily digest preference",
			run:         runSubscribe,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: trendscout-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	all := commands()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-12s %s\n", name, all[name].description); err != nil {
			return err
		}
	}
	return nil
}

type migrateOptions struct {
	Timeout time.Duration
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	cmdCtx.Logger.Info("running database migrations")
	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}
	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

type tickOptions struct {
	At time.Time
}

func parseTickFlags(args []string, now time.Time) (tickOptions, error) {
	fs := flag.NewFlagSet("tick", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var at string
	fs.StringVar(&at, "at", "", "Evaluate the tick as of this RFC3339 instant (default: now)")
	if err := fs.Parse(args); err != nil {
		return tickOptions{}, err
	}

	opts := tickOptions{At: now.UTC()}
	if at = strings.TrimSpace(at); at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return tickOptions{}, fmt.Errorf("--at must be RFC3339: %w", err)
		}
		opts.At = parsed.UTC()
	}
	return opts, nil
}

func runTick(cmdCtx *commandContext, args []string) error {
	opts, err := parseTickFlags(args, time.Now())
	if err != nil {
		return err
	}
	return withServices(cmdCtx, func(svc bootstrap.ServiceContainer) error {
		res, tickErr := svc.Dispatch.Tick(cmdCtx.Ctx, opts.At)
		if tickErr != nil {
			return fmt.Errorf("tick: %w", tickErr)
		}
		return printJSON(cmdCtx.Out, res)
	})
}

type runOptions struct {
	Request model.RunWorkflowRequest
	Timeout time.Duration
}

func parseRunFlags(args []string) (runOptions, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := runOptions{}
	fs.StringVar(&opts.Request.BusinessDescription, "description", "", "Business description to analyze trends for (required)")
	fs.StringVar(&opts.Request.UserID, "user", "", "User id to attribute queries to (required)")
	fs.IntVar(&opts.Request.VideosPerQuery, "videos", 0, "Videos per query (default: pipeline maximum)")
	fs.DurationVar(&opts.Timeout, "timeout", defaultRunTimeout, "Maximum duration for the whole run")
	if err := fs.Parse(args); err != nil {
		return runOptions{}, err
	}
	if err := opts.Request.Validate(); err != nil {
		return runOptions{}, err
	}
	if opts.Timeout <= 0 {
		return runOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runWorkflow(cmdCtx *commandContext, args []string) error {
	opts, err := parseRunFlags(args)
	if err != nil {
		return err
	}
	return withServices(cmdCtx, func(svc bootstrap.ServiceContainer) error {
		ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
		defer cancel()

		run, runErr := svc.Pipeline.RunWorkflow(ctx, opts.Request)
		if run != nil {
			if printErr := printJSON(cmdCtx.Out, run.Summary()); printErr != nil {
				return printErr
			}
		}
		return runErr
	})
}

func runGetRun(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("get-run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.String("id", "", "Workflow run id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*id) == "" {
		return errors.New("--id is required")
	}

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: cmdCtx.Config.Postgres, Logger: cmdCtx.Logger})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	run, err := data.NewWorkflowRunRepo(db).GetByID(cmdCtx.Ctx, strings.TrimSpace(*id))
	if err != nil {
		return err
	}
	return printJSON(cmdCtx.Out, run.Summary())
}

type subscribeOptions struct {
	Preference model.UserSchedulePreference
}

func parseSubscribeFlags(args []string, now time.Time) (subscribeOptions, error) {
	fs := flag.NewFlagSet("subscribe", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		opts    subscribeOptions
		disable bool
	)
	pref := &opts.Preference
	fs.StringVar(&pref.UserID, "user", "", "Existing user id (optional; matched by email otherwise)")
	fs.StringVar(&pref.Email, "email", "", "Digest recipient (required)")
	fs.StringVar(&pref.BusinessDescription, "description", "", "Business description (required)")
	fs.StringVar(&pref.Timezone, "timezone", "UTC", "IANA timezone name")
	fs.IntVar(&pref.LocalHour, "hour", 9, "Local delivery hour (0-23)")
	fs.BoolVar(&disable, "disable", false, "Turn email notifications off")
	if err := fs.Parse(args); err != nil {
		return subscribeOptions{}, err
	}

	pref.Email = strings.TrimSpace(pref.Email)
	pref.BusinessDescription = strings.TrimSpace(pref.BusinessDescription)
	pref.Timezone = strings.TrimSpace(pref.Timezone)
	pref.NotificationsEnabled = !disable

	if pref.Email == "" {
		return subscribeOptions{}, errors.New("--email is required")
	}
	if pref.BusinessDescription == "" {
		return subscribeOptions{}, errors.New("--description is required")
	}
	if _, err := schedule.EmailUTCHour(pref.Timezone, pref.LocalHour, now); err != nil {
		return subscribeOptions{}, err
	}
	return opts, nil
}

func runSubscribe(cmdCtx *commandContext, args []string) error {
	opts, err := parseSubscribeFlags(args, time.Now())
	if err != nil {
		return err
	}

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: cmdCtx.Config.Postgres, Logger: cmdCtx.Logger})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	return subscribe(cmdCtx, data.NewUserScheduleRepo(db), opts)
}

type preferenceStore interface {
	UpsertPreference(ctx context.Context, p data.UpsertPreferenceParams) (string, error)
}

func subscribe(cmdCtx *commandContext, store preferenceStore, opts subscribeOptions) error {
	pref := opts.Preference
	id, err := store.UpsertPreference(cmdCtx.Ctx, data.UpsertPreferenceParams{Preference: pref})
	switch {
	case apperrors.IsConflict(err):
		return fmt.Errorf("user id %q already belongs to another email (conflict on %s): %w",
			pref.UserID, apperrors.GetField(err), err)
	case apperrors.IsValidation(err):
		return fmt.Errorf("preference rejected for %s: %w", pref.Email, err)
	case err != nil:
		return err
	}
	return writef(cmdCtx.Out, "user %s subscribed (%s, %02d:00 %s)\n",
		id, pref.Email, pref.LocalHour, pref.Timezone)
}

// withServices connects infrastructure, builds the service graph, and tears it down after fn.
func withServices(cmdCtx *commandContext, fn func(bootstrap.ServiceContainer) error) error {
	dbCfg := bootstrap.DatabaseConfig{
		DBConfig:    cmdCtx.Config.Postgres,
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	}
	db, err := bootstrap.ConnectDB(dbCfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	redisClient, err := bootstrap.ConnectRedis(dbCfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer func() {
			if closeErr := redisClient.Close(); closeErr != nil {
				cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
			}
		}()
	}

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cmdCtx.Config,
		DB:          db,
		RedisClient: redisClient,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}
	return fn(services)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

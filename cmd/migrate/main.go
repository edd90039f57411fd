package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
}

// offline commands only touch the migrations directory.
var offline = map[string]func(options) error{
	"create": func(o options) error {
		if o.name == "" {
			return fmt.Errorf("-name is required for create")
		}
		path, err := migrate.Scaffold(o.dir, o.name, time.Now())
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	},
	"check": func(o options) error {
		names, err := migrate.Check(o.dir)
		if err != nil {
			return err
		}
		fmt.Printf("%d migrations ok\n", len(names))
		return nil
	},
}

var online = map[string]func(context.Context, *migrate.Runner, options) error{
	"up":     func(ctx context.Context, r *migrate.Runner, _ options) error { return r.Up(ctx) },
	"down":   func(ctx context.Context, r *migrate.Runner, _ options) error { return r.Down(ctx) },
	"status": func(ctx context.Context, r *migrate.Runner, _ options) error { return r.Status(ctx) },
	"to": func(ctx context.Context, r *migrate.Runner, o options) error {
		target, err := strconv.ParseInt(o.version, 10, 64)
		if err != nil {
			return fmt.Errorf("-version must be YYYYMMDDHHMMSS: %w", err)
		}
		return r.To(ctx, target)
	},
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "one of: up, down, status, to, create, check")
	var opts options
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version for -cmd=to")
	flag.Parse()

	if fn, ok := offline[*cmd]; ok {
		if err := fn(opts); err != nil {
			fmt.Fprintf(os.Stderr, "migrate %s: %v\n", *cmd, err)
			os.Exit(1)
		}
		return
	}
	fn, ok := online[*cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown -cmd %q\n", *cmd)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	if cfg.FeatureFlags.UseSQLite {
		logg.Warn(context.Background(), "sqlite databases are auto-migrated from models; goose only targets postgres")
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": strings.ToLower(*cmd),
		"dir": opts.dir,
	})

	if err := runOnline(ctx, cfg, logg, fn, opts); err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migration finished")
}

func runOnline(ctx context.Context, cfg *config.Config, logg *logger.Logger, fn func(context.Context, *migrate.Runner, options) error, opts options) error {
	dbClient, err := db.New(ctx, cfg.DB, false, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("extract sql.DB: %w", err)
	}
	runner, err := migrate.NewRunner(sqlDB, opts.dir)
	if err != nil {
		return err
	}
	return fn(ctx, runner, opts)
}

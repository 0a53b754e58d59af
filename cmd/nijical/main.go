package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/magicien/Nij.iCal/internal/config"
	"github.com/magicien/Nij.iCal/internal/digest"
	"github.com/magicien/Nij.iCal/internal/ical"
	appLog "github.com/magicien/Nij.iCal/internal/log"
	"github.com/magicien/Nij.iCal/internal/model"
	"github.com/magicien/Nij.iCal/internal/publish"
	"github.com/magicien/Nij.iCal/internal/source"
	"github.com/magicien/Nij.iCal/internal/web"
)

func main() {
	// Load .env first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "nijical",
		Usage: "Generate bilingual talent calendars and daily event digests.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "config.yaml",
				Usage: "Path to the YAML config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info or error (overrides config)",
			},
		},
		Commands: []*cli.Command{
			generateCommand(),
			digestCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		appLog.Fatal("nijical failed", err)
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Derive all events and write every calendar document.",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(c.Context)
			defer stop()

			facts, err := loadFacts(ctx, cfg)
			if err != nil {
				return err
			}

			pub := &publish.Publisher{
				Renderer:  ical.NewRenderer(),
				OutputDir: cfg.OutputDir,
				URLPrefix: cfg.URLPrefix,
			}
			return pub.Run(facts, time.Now().In(model.JST))
		},
	}
}

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:  "digest",
		Usage: "Print the today/tomorrow digest text for both locales.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "date",
				Usage: "Treat this date (YYYY/MM/DD) as today",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			today := time.Now().In(model.JST)
			if v := c.String("date"); v != "" {
				today, err = time.ParseInLocation("2006/01/02", v, model.JST)
				if err != nil {
					return fmt.Errorf("bad --date %q: %w", v, err)
				}
			}

			ctx, stop := signalContext(c.Context)
			defer stop()

			facts, err := loadFacts(ctx, cfg)
			if err != nil {
				return err
			}

			live, talent, err := publish.Derive(facts, today)
			if err != nil {
				return err
			}

			texts := digest.DailyPost(live, talent, today)
			fmt.Println("=====================")
			fmt.Print(texts.Ja)
			fmt.Println("=====================")
			fmt.Print(texts.En)
			fmt.Println("=====================")
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the output directory over HTTP, regenerating on a schedule.",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(c.Context)
			defer stop()

			refresh := func() error {
				facts, err := loadFacts(ctx, cfg)
				if err != nil {
					return err
				}
				pub := &publish.Publisher{
					Renderer:  ical.NewRenderer(),
					OutputDir: cfg.OutputDir,
					URLPrefix: cfg.URLPrefix,
				}
				return pub.Run(facts, time.Now().In(model.JST))
			}

			if err := refresh(); err != nil {
				return err
			}

			return web.NewServer(cfg, refresh).Run(ctx)
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

func loadFacts(ctx context.Context, cfg *config.Config) (*source.Facts, error) {
	fetcher := source.NewFetcher(cfg.CacheDir)
	return fetcher.Load(ctx, cfg.Sources.Talents, cfg.Sources.Events, cfg.Sources.Tickets)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

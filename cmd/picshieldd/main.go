package main

import (
	"context"
	"log"
	"time"

	"github.com/inhies/go-bytesize"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"picshield/pkg/bot"
	"picshield/pkg/protect"
	"picshield/pkg/server"
	"picshield/pkg/store"
)

const botStopTimeout = 2 * time.Second

var listen = flag.String("listen", ":5000", "listen addr")
var data = flag.String("data", "data", "directory for uploads and processed images")
var maxUpload = flag.String("max-upload", "20MB", "largest accepted upload")
var tgToken = flag.String("tg-token", "", "telegram bot token")
var debug = flag.Bool("debug", false, "set debug")

var protectFlags = protect.BindFlags(flag.CommandLine)

func main() {
	flag.Parse()

	limit, err := bytesize.Parse(*maxUpload)
	if err != nil {
		log.Fatalf("invalid --max-upload: %s", err)
	}

	cfg, err := protectFlags.Config()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	if *debug {
		logger, _ = zap.NewDevelopment()
	}

	fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.With(zap.String("via", "fx"))}
		}),
		fx.Supply(
			logger,
			cfg,
			server.Config{Addr: *listen, MaxUpload: limit},
		),
		fx.Provide(
			func(logger *zap.Logger) (*store.Store, error) {
				fs, err := store.NewOsFs(*data)
				if err != nil {
					return nil, err
				}
				return store.New(fs, logger)
			},
			func(cfg protect.Config, logger *zap.Logger) (*protect.Pipeline, error) {
				return protect.New(cfg, protect.WithLogger(logger))
			},
			server.New,
		),
		fx.Invoke(
			server.Serve,
			startBot,
		),
	).Run()
}

func startBot(p *protect.Pipeline, st *store.Store, logger *zap.Logger, lifecycle fx.Lifecycle) error {
	if *tgToken == "" {
		return nil
	}

	b, err := bot.New(*tgToken, p, st, logger)
	if err != nil {
		return err
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			b.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, botStopTimeout)
			defer cancel()
			if err := b.Stop(ctx); err != nil {
				logger.With(zap.Error(err)).Info("bot still polling, leaving it behind")
			}
			return nil
		},
	})
	return nil
}

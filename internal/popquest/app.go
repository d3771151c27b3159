package popquest

import (
	"context"
	"os"
	"os/signal"

	"github.com/popquest/popquest/internal/pkg/logger"
	"github.com/popquest/popquest/internal/popquest/config"
	"github.com/popquest/popquest/internal/popquest/controller"
	"github.com/popquest/popquest/internal/popquest/router"
	"github.com/popquest/popquest/internal/popquest/store"
	"go.uber.org/zap"
)

type App struct {
	router *router.HttpRouter
	logger *zap.Logger
}

func (a *App) Run() error {
	sigChan := make(chan os.Signal, 1)
	go func() {
		if err := a.router.Run(); err != nil {
			a.logger.Error("router.Run failed: ", zap.Error(err))
			sigChan <- os.Interrupt
		}
	}()
	return a.gracefulShutdown(sigChan)
}

func (a *App) gracefulShutdown(sigChan chan os.Signal) error {
	signal.Notify(sigChan, os.Interrupt)
	<-sigChan
	if err := a.router.Close(); err != nil {
		a.logger.Error("router.Close failed: ", zap.Error(err))
	}
	return a.logger.Sync()
}

func NewApp(cfg *config.Config) *App {
	log, err := logger.InitLogger(logger.FileSink{
		Path:       cfg.Log.Path,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		panic(err)
	}
	ctx := context.Background()
	slot := newSlot(ctx, cfg)
	st := store.New(slot, log)
	c := controller.NewController(ctx, st)
	r := router.CreateRouter(c, cfg, log)
	return &App{
		router: r,
		logger: log,
	}
}

func newSlot(ctx context.Context, cfg *config.Config) store.Slot {
	switch cfg.Storage.Backend {
	case "postgres":
		slot, err := store.NewPostgresSlot(ctx, cfg.Storage.PostgresURL, cfg.Storage.Key)
		if err != nil {
			panic(err)
		}
		return slot
	case "redis":
		slot, err := store.NewRedisSlot(ctx, cfg.Storage.Redis.Addr, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Key)
		if err != nil {
			panic(err)
		}
		return slot
	case "memory":
		return store.NewMemorySlot()
	default:
		panic("unknown storage backend: " + cfg.Storage.Backend)
	}
}

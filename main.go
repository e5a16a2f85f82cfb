package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/cppla/postboard/config"
	"github.com/cppla/postboard/routes"
	"github.com/cppla/postboard/store"
	"github.com/cppla/postboard/utils"
)

type backend interface {
	store.PostStore
	store.UserStore
}

func main() {
	configPath := pflag.StringP("config", "c", config.DefaultPath, "path to the JSON config file")
	port := pflag.StringP("port", "p", "", "listen port, overrides config and APP_PORT")
	pflag.Parse()

	cfg := config.Load(*configPath)
	if *port != "" {
		cfg.AppPort = *port
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	utils.InitRedis(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, closeStore, err := openStore(ctx, cfg)
	cancel()
	if err != nil {
		utils.Sugar.Fatalf("open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()

	if err := os.MkdirAll(cfg.ImageDir, 0o755); err != nil {
		utils.Sugar.Fatalf("create image directory %s: %v", cfg.ImageDir, err)
	}

	r := routes.SetupRouter(cfg, db, db)

	utils.Sugar.Infof("Starting server on port %s with %s store (graceful)", cfg.AppPort, cfg.StoreDriver)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Errorf("server stopped with error: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.AppConfig) (backend, func(), error) {
	switch cfg.StoreDriver {
	case "mysql":
		db, err := config.InitDatabase(cfg, store.Models()...)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return store.NewGormStore(db), closeFn, nil
	default:
		client, mdb, err := config.InitMongo(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
		s := store.NewMongoStore(mdb)
		if err := s.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return s, closeFn, nil
	}
}

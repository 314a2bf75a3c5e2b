package main

import (
	"github.com/cppla/sigil/config"
	"github.com/cppla/sigil/models"
	"github.com/cppla/sigil/progression"
	"github.com/cppla/sigil/routes"
	"github.com/cppla/sigil/services"
	"github.com/cppla/sigil/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(models.All()...)

	curve, err := progression.LoadCurve(cfg.LevelCurvePath)
	if err != nil {
		utils.Sugar.Fatalf("load level curve: %v", err)
	}
	svc := services.New(db, cfg, services.WithCurve(curve))

	// Warm the Redis connection; nil means caching is off.
	if utils.GetRedis() == nil {
		utils.Sugar.Infow("redis unavailable, caching disabled")
	}

	r := routes.SetupRouter(svc)

	srv := utils.NewGraceServer(":"+cfg.AppPort, r)
	srv.OnShutdown(utils.CloseRedis)
	srv.OnShutdown(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := srv.ListenAndServe(); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

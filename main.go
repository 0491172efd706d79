package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"facerate-go/internal/config"
	"facerate-go/internal/database"
	"facerate-go/internal/handlers"
	logger "facerate-go/internal/logging"
	"facerate-go/internal/models"
	"facerate-go/internal/persistence"
	"facerate-go/internal/repository"
	"facerate-go/internal/router"
	"facerate-go/internal/runner"
	"facerate-go/internal/services"
	"facerate-go/internal/stimulus"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	projectRoot, err := os.Getwd()
	if err != nil {
		panic("failed to resolve working directory: " + err.Error())
	}

	// Configuration is read before the file logger exists, so it reports to
	// a plain console logger.
	bootLog, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize bootstrap logger: " + err.Error())
	}
	if err := config.Init(projectRoot, bootLog); err != nil {
		bootLog.Fatal("Failed to load configuration", zap.Error(err))
	}

	log, err := logger.Init(projectRoot, config.Conf.Logging)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer log.Sync()

	if config.Conf.Server.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Init(log, config.Conf.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	stores := persistence.Multi{repository.NewResponseRepository(db)}
	if rc := config.Conf.Redis; rc.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis unreachable, stream mirror will retry per write", zap.String("addr", rc.Addr), zap.Error(err))
		}
		cancel()
		stores = append(stores, persistence.Mirror{Store: persistence.NewStreamStore(rdb, rc.StreamPrefix), Log: log.Named("redis")})
		log.Info("Redis stream mirror enabled", zap.String("addr", rc.Addr), zap.String("prefix", rc.StreamPrefix))
	}

	pc := config.Conf.Persistence
	writer := persistence.NewWriter(log.Named("writer"), pc.QueueSize, pc.WriteTimeout)
	pipeline := persistence.NewPipeline(log, stores, writer, config.Conf.Survey.ClientVersion)

	sc := config.Conf.Survey
	contentFile := sc.ContentFile
	if !filepath.IsAbs(contentFile) {
		contentFile = filepath.Join(projectRoot, contentFile)
	}
	survey, err := models.LoadSurvey(contentFile)
	if err != nil {
		log.Fatal("Failed to load survey content", zap.Error(err))
	}

	codec := stimulus.DefaultCodec()
	if sc.ImageDir != "" {
		codec.Dir = sc.ImageDir
	}
	if sc.Extension != "" {
		codec.Ext = sc.Extension
	}
	if sc.FaceCount > 0 {
		codec.FaceCount = sc.FaceCount
	}

	registry := runner.NewRegistry()
	surveyHandler := handlers.NewSurveyHandler(log, survey, codec, registry, pipeline,
		repository.NewParticipantRepository(db),
		func() (string, time.Duration) {
			return config.Conf.Survey.RedirectURL, config.Conf.Survey.RedirectDelay
		},
	)

	prompts := make([]string, len(survey.Questions))
	for i, q := range survey.Questions {
		prompts[i] = q.Prompt
	}
	adminHandler := handlers.NewAdminHandler(log, repository.NewSummaryRepository(db), prompts)

	r := router.Setup(log, router.Deps{Survey: surveyHandler, Admin: adminHandler, Registry: registry})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := services.NewSweeper(log, registry, func() time.Duration { return config.Conf.Survey.RunTTL }, 10*time.Minute)
	sweeper.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + config.Conf.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("Server listening on http://localhost" + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to run Gin server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	sweeper.Wait()
	// Pending per-trial saves are flushed before exit.
	writer.Close()
}

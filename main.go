package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/padraicbc/golfstats/config"
	"github.com/padraicbc/golfstats/db"
	"github.com/padraicbc/golfstats/handlers"
	"github.com/padraicbc/golfstats/ingest"
	applog "github.com/padraicbc/golfstats/logger"
	mw "github.com/padraicbc/golfstats/middleware"
	"github.com/padraicbc/golfstats/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := applog.New("api", cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := cfg.RequireJWT(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	ctx := context.Background()
	bdb, err := db.Setup(ctx, cfg)
	if err != nil {
		logger.Fatal("database setup failed", zap.Error(err))
	}
	defer bdb.Close()

	if err := db.CreateTables(ctx, bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	fs := afero.NewOsFs()
	st := store.New(bdb)
	archiver := ingest.NewArchiver(fs, cfg.ProcessedDir)
	uploads := &handlers.Uploads{
		Fs:            fs,
		Dir:           cfg.InputDir,
		CoursePattern: cfg.CoursePattern,
		Courses:       ingest.NewPipeline[ingest.CourseImport](fs, ingest.NewCourseImporter(st), archiver, logger),
		Rounds:        ingest.NewPipeline[ingest.RoundImport](fs, ingest.NewRoundImporter(st), archiver, logger),
	}

	h := handlers.New(bdb, cfg.JWTKey(), cfg.AdminUsers, uploads)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"*", "Authorization"},
		AllowCredentials: true,
	}))

	// Public
	e.POST("/golf/signin", h.Signin)

	// Protected – require valid JWT in Authorization header
	golf := e.Group("/golf", mw.JWT(cfg.JWTKey()))
	golf.POST("/password-hash", h.PasswordHash)
	golf.GET("/courses", h.Courses)
	golf.GET("/courses/:id/tees", h.CourseTees)
	golf.GET("/courses/:id/holes", h.CourseHoles)
	golf.GET("/rounds", h.Rounds)
	golf.GET("/rounds/:id/holes", h.RoundHoles)
	golf.GET("/holes/summary", h.HoleSummary)

	imports := golf.Group("/import", echomw.BodyLimit("10M"))
	imports.POST("/courses", h.ImportCourses)
	imports.POST("/rounds", h.ImportRounds)

	if cfg.Debug {
		logger.Info("starting server", zap.String("mode", "debug"), zap.String("addr", cfg.Port))
		if err := e.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server exited", zap.Error(err))
		}
		return
	}

	autoTLS := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(".cache"),
		HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
	}

	s := &http.Server{
		Addr:         ":443",
		Handler:      e,
		TLSConfig:    autoTLS.TLSConfig(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	logger.Info("starting server", zap.String("mode", "tls"), zap.Strings("domains", cfg.TLSDomains))
	if err := s.ListenAndServeTLS("", ""); err != http.ErrServerClosed {
		logger.Error("tls server exited", zap.Error(err))
		os.Exit(1)
	}
}

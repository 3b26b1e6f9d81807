package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/taskmaster/gateway/api/handler"
	"github.com/taskmaster/gateway/internal/config"
	"github.com/taskmaster/gateway/internal/errbus"
	fbInfra "github.com/taskmaster/gateway/internal/infrastructure/firebase"
	"github.com/taskmaster/gateway/internal/infrastructure/monitor"
	"github.com/taskmaster/gateway/internal/middleware"
	"github.com/taskmaster/gateway/internal/router"
	"github.com/taskmaster/gateway/internal/services"
	"github.com/taskmaster/gateway/internal/services/lifecycle"
	"github.com/taskmaster/gateway/pkg/httpcontext"
	"github.com/taskmaster/gateway/pkg/logger"
	"github.com/taskmaster/gateway/repository"
	boltRepo "github.com/taskmaster/gateway/repository/bolt"
	fsRepo "github.com/taskmaster/gateway/repository/firestore"
	authUC "github.com/taskmaster/gateway/usecase/auth"
	boardUC "github.com/taskmaster/gateway/usecase/board"
	profileUC "github.com/taskmaster/gateway/usecase/profile"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	bus := errbus.New()
	alerter := services.NewAlerter(bus, zapLogger)
	manager.Register("alerter", func(ctx context.Context) error {
		alerter.Close()
		return nil
	})

	var (
		taskRepo    repository.TaskRepository
		profileRepo repository.ProfileRepository
		health      repository.HealthChecker
		verifier    authUC.TokenVerifier
		issuer      *authUC.LocalIssuer
	)

	switch cfg.Store.Driver {
	case config.DriverFirestore:
		clients, err := fbInfra.NewClients(appCtx, cfg.Firebase, zapLogger)
		if err != nil {
			zapLogger.Fatal("firebase connection failed", zap.Error(err))
		}
		manager.Register("firebase", func(ctx context.Context) error {
			return clients.Close()
		})
		store := fsRepo.New(clients.Firestore)
		taskRepo = store.Tasks()
		profileRepo = store.Profiles()
		health = store
		if cfg.Auth.Mode == config.AuthModeFirebase {
			verifier = fbInfra.NewVerifier(clients.Auth)
		}
	case config.DriverBolt:
		store, err := boltRepo.Open(cfg.Store.BoltPath)
		if err != nil {
			zapLogger.Fatal("failed to open local store", zap.Error(err))
		}
		manager.Register("bolt", func(ctx context.Context) error {
			return store.Close()
		})
		taskRepo = store.Tasks()
		profileRepo = store.Profiles()
		health = store
	}

	if cfg.Auth.Mode == config.AuthModeLocal {
		local := authUC.NewLocalIssuer(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, zapLogger)
		issuer = local
		verifier = local
	}

	sessions := services.NewSessionManager(
		func(userID string) *boardUC.Session {
			return boardUC.NewSession(userID, taskRepo, bus, zapLogger)
		},
		services.ManagerConfig{
			IdleTTL:       cfg.Session.IdleTTL,
			SweepInterval: cfg.Session.SweepInterval,
		},
		zapLogger,
	)
	sessions.Start()
	manager.Register("sessions", func(ctx context.Context) error {
		sessions.Stop(ctx)
		return nil
	})

	mon := monitor.New(health, cfg.Store.Driver, sessions, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	profileUseCase := profileUC.New(profileRepo, bus, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(issuer, sessions, ctxAdapter, zapLogger),
		Profile: apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Board:   apiHandler.NewBoardHandler(sessions, bus, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.TokenAuth(verifier, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/trezcool/barangay/apps/api/echo"
	"github.com/trezcool/barangay/apps/shared"
	"github.com/trezcool/barangay/assets"
	"github.com/trezcool/barangay/core"
	"github.com/trezcool/barangay/core/auth"
	emailsvc "github.com/trezcool/barangay/services/email"
	logsvc "github.com/trezcool/barangay/services/logger"
	"github.com/trezcool/barangay/services/metrics"
	"github.com/trezcool/barangay/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Prepare(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	dbLogger.Info(fmt.Sprintf("connected to %s store %q", conf.Database.Engine, conf.Database.Name))
	defer func() {
		if err = db.Close(context.Background()); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	appMetrics := metrics.New("barangay")
	svcs := shared.NewServices(db, mailSvc, appMetrics)
	gate := auth.NewGate(conf.AppName, conf.SecretKey, conf.Server.JWTExpirationDelta, svcs.Users)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	if err = core.ParseEmailTemplates(assets.FS, logger, false); err != nil {
		logger.Fatal(fmt.Sprintf("loading email templates: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			Store:           db,
			Validator:       svcs.Validator,
			Gate:            gate,
			Metrics:         appMetrics,
			UserSvc:         svcs.Users,
			RegistrySvc:     svcs.Registry,
			AnnouncementSvc: svcs.Announcements,
			EventSvc:        svcs.Events,
			DocumentSvc:     svcs.Documents,
			DashboardSvc:    svcs.Dashboard,
		},
	)
	server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

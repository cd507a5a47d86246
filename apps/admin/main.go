package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/barangay/apps/shared"
	"github.com/trezcool/barangay/core"
	emailsvc "github.com/trezcool/barangay/services/email"
	logsvc "github.com/trezcool/barangay/services/logger"
	"github.com/trezcool/barangay/storage/database"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB
	ctx := context.Background()
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal(err)
	}

	// admin commands send no mail; the console service only logs
	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!conf.Debug)
	mailSvc := emailsvc.NewConsoleService(conf, appLogger)

	// start CLI
	cli := commandLine{
		store: db,
		svcs:  shared.NewServices(db, mailSvc, nil),
	}
	err = cli.run(os.Args)
	_ = db.Close(ctx)
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/bursar/apps/api/echo"
	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/expense"
	"github.com/trezcool/bursar/core/live"
	"github.com/trezcool/bursar/core/slip"
	"github.com/trezcool/bursar/core/staff"
	"github.com/trezcool/bursar/core/student"
	"github.com/trezcool/bursar/core/user"
	emailsvc "github.com/trezcool/bursar/services/email"
	eventsvc "github.com/trezcool/bursar/services/events"
	logsvc "github.com/trezcool/bursar/services/logger"
	"github.com/trezcool/bursar/storage/database"
	sqlxrepos "github.com/trezcool/bursar/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := newLogger("API : ", conf)
	dbLogger := newLogger("DB : ", conf)
	feedLogger := newLogger("FEED : ", conf)
	defer logger.Close()

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var events core.EventPublisher = eventsvc.NewLogPublisher(logger)
	if conf.AMQP.URL != "" {
		amqpPub, err := eventsvc.NewAMQPPublisher(conf.AMQP)
		if err != nil {
			logger.Fatal(fmt.Sprintf("connecting to the event broker: %v", err), err)
		}
		defer func() {
			if err := amqpPub.Close(); err != nil {
				logger.Error("closing the event broker connection", err)
			}
		}()
		events = amqpPub
	}

	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db), events, logger)
	staffSvc := staff.NewService(sqlxrepos.NewStaffRepository(db), events, logger)
	expenseSvc := expense.NewService(sqlxrepos.NewExpenseRepository(db), events, logger)
	slipSvc := slip.NewService(sqlxrepos.NewSlipRepository(db), studentSvc, events, logger)
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	core.ParseEmailTemplates(logger)

	// =========================================================================
	// Start Live Dashboard
	//
	// Every feed LISTENs on its own connection; a reload is cut short after FeedReloadTimeout.

	board := live.NewBoard(live.Sources{
		Students: withTimeout(studentSvc.QueryAll, conf.Server.FeedReloadTimeout),
		Staff:    withTimeout(staffSvc.QueryAll, conf.Server.FeedReloadTimeout),
		Expenses: withTimeout(expenseSvc.QueryAll, conf.Server.FeedReloadTimeout),
	}, sqlxrepos.NewWatcher(database.DSN(conf, conf.Database.Name, false), feedLogger), feedLogger)

	boardCtx, stopBoard := context.WithCancel(context.Background())
	defer stopBoard()
	go func() {
		if err := board.Run(boardCtx); err != nil {
			feedLogger.Error(fmt.Sprintf("live dashboard stopped: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
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
			Conf:       conf,
			Logger:     logger,
			MailSvc:    mailSvc,
			UserSvc:    usrSvc,
			StudentSvc: studentSvc,
			StaffSvc:   staffSvc,
			ExpenseSvc: expenseSvc,
			SlipSvc:    slipSvc,
			Board:      board,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		stopBoard()

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func newLogger(prefix string, conf *core.Config) *logsvc.RollbarLogger {
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	return logger
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// withTimeout bounds every load of a live feed. A zero timeout leaves it unbounded.
func withTimeout[T any](load live.Loader[T], timeout time.Duration) live.Loader[T] {
	if timeout <= 0 {
		return load
	}
	return func(ctx context.Context) ([]T, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return load(ctx)
	}
}

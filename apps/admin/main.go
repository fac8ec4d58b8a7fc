package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/report"
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
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.Open(ctx, conf)
	cancel()
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// the CLI never mails anything and its changes are only logged
	events := eventsvc.NewLogPublisher(logger)
	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db), events, logger)

	// start CLI
	cli := commandLine{
		db:       db.DB,
		usrSvc:   user.NewService(sqlxrepos.NewUserRepository(db), emailsvc.NewConsoleService(conf, logger), conf),
		students: studentSvc,
		staff:    staff.NewService(sqlxrepos.NewStaffRepository(db), events, logger),
		slips:    slip.NewService(sqlxrepos.NewSlipRepository(db), studentSvc, events, logger),
		org:      report.NewOrg(conf.Org),
	}
	err = cli.run(os.Args)
	if cErr := db.Close(); cErr != nil {
		logger.Error("closing database", cErr)
	}
	logger.Close()
	if err != nil {
		if err != errHelp {
			fmt.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

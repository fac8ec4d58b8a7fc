package main

import (
	"database/sql"
	"flag"
	"fmt"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/bursar/core/report"
	"github.com/trezcool/bursar/core/slip"
	"github.com/trezcool/bursar/core/staff"
	"github.com/trezcool/bursar/core/student"
	"github.com/trezcool/bursar/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	writeFileFunc    = report.WriteFile  // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sql.DB
	usrSvc   *user.Service
	students *student.Service
	staff    *staff.Service
	slips    *slip.Service
	org      report.Org
	nowFunc  func() time.Time
}

func (cli *commandLine) now() time.Time {
	if cli.nowFunc != nil {
		return cli.nowFunc()
	}
	return time.Now().UTC()
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]                          - run a goose command against the database")
	fmt.Println("  adduser -email EMAIL                            - create an admin user, or reactivate one; the password is prompted")
	fmt.Println("  resetpassword -email EMAIL                      - reset an admin user's password; the password is prompted")
	fmt.Println("  report -kind students|staff [-year YEAR] [...]  - print a fee or salary ledger report to a PDF file")
	fmt.Println("  voucher -id SLIP_ID [-out FILE]                 - print the fee voucher of a slip to a PDF file")
}

// promptPassword reads a password from the terminal without echoing it.
func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser", "resetpassword":
		cmd := flag.NewFlagSet(args[1], flag.ContinueOnError)
		email := cmd.String("email", "", "The user's email. The password will be prompted next.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *email == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			cmd.Usage()
			return errHelp
		}
		if args[1] == "adduser" {
			return cli.addUser(*email, pwd)
		}
		return cli.resetPassword(*email, pwd)

	case "report":
		cmd := flag.NewFlagSet("report", flag.ContinueOnError)
		opts := reportOptions{}
		cmd.StringVar(&opts.kind, "kind", "", "students or staff")
		cmd.StringVar(&opts.year, "year", "", "The ledger year; the current one by default.")
		cmd.StringVar(&opts.month, "month", "", "Only list entities matching the payment filter on this month.")
		cmd.StringVar(&opts.payment, "payment", "", "all, paid or unpaid")
		cmd.StringVar(&opts.class, "class", "", "The class of students or the designation of staff.")
		cmd.StringVar(&opts.status, "status", "", "active, left or all")
		cmd.StringVar(&opts.out, "out", "", "The PDF file to write; named after the report by default.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if opts.kind != "students" && opts.kind != "staff" {
			cmd.Usage()
			return errHelp
		}
		return cli.report(opts)

	case "voucher":
		cmd := flag.NewFlagSet("voucher", flag.ContinueOnError)
		id := cmd.String("id", "", "The slip ID.")
		out := cmd.String("out", "", "The PDF file to write; named after the slip by default.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *id == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.voucher(*id, *out)

	default:
		cli.printUsage()
		return errHelp
	}
}

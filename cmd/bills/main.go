package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"bill-tracker/internal/config"
	"bill-tracker/internal/export"
	"bill-tracker/internal/ledger"
	applog "bill-tracker/internal/log"
	"bill-tracker/internal/models"
	"bill-tracker/internal/report"
	"bill-tracker/internal/storage"

	"golang.org/x/term"
)

const usage = `Usage: bills [-db <db_path>] <command> [flags]

Commands:
  list        show expenses (-category, -month 0-11, -year)
  add         add an expense (-name, -amount, -due YYYY-MM-DD, -category)
  edit        change an expense (-id plus any field to replace)
  delete      delete an expense (-id, -yes to skip the prompt)
  toggle      mark an expense paid or unpaid (-id)
  years       list the years that have expenses
  categories  list the categories
  export      write an xlsx report (-o file plus list filters)
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	ctx    context.Context
	ledger *ledger.Ledger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("bills", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	dbPath := fs.String("db", "", "Path to database file (default from DB_PATH or bills.db)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprint(stdout, usage)
		return errors.New("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	if cmd == "categories" {
		for _, c := range models.Categories {
			fmt.Fprintln(stdout, c)
		}
		return nil
	}

	logCfg := applog.DefaultConfig()
	logCfg.Level = applog.ParseLevel(cfg.LogLevel)
	logCfg.Component = applog.ComponentCLI
	logCfg.Format = cfg.LogFormat
	logCfg.Output = stderr
	logger := applog.New(logCfg)

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	a := &app{
		ctx:    ctx,
		ledger: ledger.New(ctx, storage.NewExpenseStore(db, cfg.StorageKey, logger), ledger.WithLogger(logger)),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	switch cmd {
	case "list":
		return a.list(cmdArgs)
	case "add":
		return a.add(cmdArgs)
	case "edit":
		return a.edit(cmdArgs)
	case "delete":
		return a.delete(cmdArgs)
	case "toggle":
		return a.toggle(cmdArgs)
	case "years":
		for _, y := range report.AvailableYears(a.ledger.All()) {
			fmt.Fprintln(stdout, y)
		}
		return nil
	case "export":
		return a.export(cmdArgs)
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func selectionFlags(fs *flag.FlagSet) *report.Selection {
	sel := report.DefaultSelection()
	fs.StringVar(&sel.Category, "category", report.All, "Category filter")
	fs.StringVar(&sel.Month, "month", report.All, "Month filter, 0=January")
	fs.StringVar(&sel.Year, "year", report.All, "Year filter")
	return &sel
}

func draftFlags(fs *flag.FlagSet) *models.DraftInput {
	in := &models.DraftInput{}
	fs.StringVar(&in.Name, "name", "", "Expense name")
	fs.StringVar(&in.Amount, "amount", "", "Amount, greater than zero")
	fs.StringVar(&in.DueDate, "due", "", "Due date (YYYY-MM-DD)")
	fs.StringVar(&in.Category, "category", "", "Category: "+strings.Join(models.Categories, ", "))
	return in
}

func (a *app) list(args []string) error {
	fs := a.flagSet("list")
	sel := selectionFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	view := report.Build(a.ledger.All(), *sel)
	printExpenses(a.stdout, view)
	if len(view.Breakdown) > 0 {
		fmt.Fprintln(a.stdout)
		printBreakdown(a.stdout, view)
	}
	return nil
}

func (a *app) add(args []string) error {
	fs := a.flagSet("add")
	in := draftFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := models.ParseDraft(*in)
	if err != nil {
		return err
	}
	e := a.ledger.Add(a.ctx, d)
	fmt.Fprintf(a.stdout, "Added %q with ID %d\n", e.Name, e.ID)
	return a.ledger.LastSaveError()
}

func (a *app) edit(args []string) error {
	fs := a.flagSet("edit")
	id := fs.Int64("id", 0, "Expense ID")
	in := draftFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	current, err := a.ledger.Get(*id)
	if err != nil {
		return fmt.Errorf("expense %d: %w", *id, err)
	}

	// Fields not given on the command line keep their current values.
	merged := current.Input()
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			merged.Name = in.Name
		case "amount":
			merged.Amount = in.Amount
		case "due":
			merged.DueDate = in.DueDate
		case "category":
			merged.Category = in.Category
		}
	})

	d, err := models.ParseDraft(merged)
	if err != nil {
		return err
	}
	e, err := a.ledger.Update(a.ctx, *id, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Updated %q\n", e.Name)
	return a.ledger.LastSaveError()
}

func (a *app) delete(args []string) error {
	fs := a.flagSet("delete")
	id := fs.Int64("id", 0, "Expense ID")
	yes := fs.Bool("yes", false, "Delete without asking")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := a.ledger.Get(*id)
	if errors.Is(err, ledger.ErrNotFound) {
		fmt.Fprintf(a.stdout, "No expense with ID %d\n", *id)
		return nil
	}

	if !*yes {
		fmt.Fprintf(a.stdout, "Delete %q? [y/N] ", e.Name)
		ok, err := confirm(a.stdin)
		fmt.Fprintln(a.stdout)
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !ok {
			fmt.Fprintln(a.stdout, "Cancelled")
			return nil
		}
	}

	a.ledger.Delete(a.ctx, *id)
	fmt.Fprintf(a.stdout, "Deleted %q\n", e.Name)
	return a.ledger.LastSaveError()
}

func (a *app) toggle(args []string) error {
	fs := a.flagSet("toggle")
	id := fs.Int64("id", 0, "Expense ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := a.ledger.TogglePaid(a.ctx, *id)
	if err != nil {
		return fmt.Errorf("expense %d: %w", *id, err)
	}
	status := "unpaid"
	if e.Paid {
		status = "paid"
	}
	fmt.Fprintf(a.stdout, "Marked %q as %s\n", e.Name, status)
	return a.ledger.LastSaveError()
}

func (a *app) export(args []string) error {
	fs := a.flagSet("export")
	out := fs.String("o", "expenses.xlsx", "Output file")
	sel := selectionFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *out, err)
	}
	view := report.Build(a.ledger.All(), *sel)
	if err := export.WriteXLSX(f, view); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Exported %d expenses to %s\n", len(view.Expenses), *out)
	return nil
}

// confirm reads a yes/no answer. On a terminal a single key press is enough.
func confirm(stdin io.Reader) (bool, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return false, err
		}
		defer term.Restore(int(f.Fd()), state)

		b := make([]byte, 1)
		if _, err := f.Read(b); err != nil {
			return false, err
		}
		return b[0] == 'y' || b[0] == 'Y', nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		return answer == "y" || answer == "yes", nil
	}
	if err := scanner.Err(); err != nil {
		return false, err
	}
	return false, nil
}

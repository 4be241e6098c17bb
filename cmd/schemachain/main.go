package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/mfridman/interpolate"
	"github.com/mfridman/xflag"
	"github.com/stockdesk/schemachain"
	"github.com/stockdesk/schemachain/database"
	"github.com/stockdesk/schemachain/internal/cfg"
	"github.com/stockdesk/schemachain/lock"
	"github.com/stockdesk/schemachain/migrations"
)

var errUsage = errors.New("usage")

func main() {
	log.SetFlags(0)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		log.Fatalf("schemachain: %v", err)
	}
}

// options are the values of the command line flags.
type options struct {
	table    string
	verbose  bool
	envFile  string
	certfile string
	lock     string
	from     string
	dir      string
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("schemachain", flag.ContinueOnError)
	var opt options
	flags.StringVar(&opt.table, "table", "", "revision table name (default "+cfg.DefaultTable+")")
	flags.BoolVar(&opt.verbose, "v", false, "enable verbose mode")
	flags.StringVar(&opt.envFile, "env", ".env", "load environment variables from file, or none")
	flags.StringVar(&opt.certfile, "certfile", "", "file path to root CA's certificates in pem format (mysql only)")
	flags.StringVar(&opt.lock, "lock", "", "lock while running steps: none, table or advisory (postgres only)")
	flags.StringVar(&opt.from, "from", "", "starting revision for the sql command (default base)")
	flags.StringVar(&opt.dir, "dir", "migrations", "directory the create command writes to")
	flags.Usage = func() { usage(flags) }
	if err := xflag.ParseToEnd(flags, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}

	if opt.envFile != "none" {
		if err := godotenv.Load(opt.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}
	cfg.Load()

	driver, dbstring, command, rest, err := positional(flags.Args())
	if err != nil {
		flags.Usage()
		return err
	}
	switch command {
	case "env":
		for _, env := range cfg.List() {
			fmt.Fprintf(stdout, "%s=%q\n", env.Name, env.Value)
		}
		return nil
	case "create":
		if len(rest) != 1 {
			return errors.New("create requires a step name")
		}
		return create(stdout, opt.dir, rest[0])
	}
	dialect, driverName, err := dialectFor(driver)
	if err != nil {
		return err
	}
	dbstring, err = interpolate.Interpolate(interpolate.NewSliceEnv(os.Environ()), dbstring)
	if err != nil {
		return fmt.Errorf("failed to interpolate dbstring: %w", err)
	}
	dbstring, err = normalizeDBString(driver, dbstring, opt.certfile)
	if err != nil {
		return err
	}

	// Commands that only look at the chain never connect.
	switch command {
	case "validate":
		return validate(stdout, dialect)
	case "sql":
		if len(rest) != 1 {
			return errors.New("sql requires a target revision")
		}
		return render(stdout, dialect, firstNonEmpty(opt.from, schemachain.Base), rest[0])
	}

	db, err := sql.Open(driverName, dbstring)
	if err != nil {
		return fmt.Errorf("failed to open db connection: %w", err)
	}
	defer db.Close()

	provider, err := newProvider(dialect, db, opt)
	if err != nil {
		return err
	}
	return runCommand(ctx, stdout, provider, command, rest)
}

// positional splits the arguments into driver, dbstring and command. The driver and dbstring
// come from the environment when both are set there.
func positional(args []string) (driver, dbstring, command string, rest []string, err error) {
	if cfg.SCHEMACHAINDRIVER != "" && cfg.SCHEMACHAINDBSTRING != "" {
		if len(args) < 1 {
			return "", "", "", nil, errUsage
		}
		return cfg.SCHEMACHAINDRIVER, cfg.SCHEMACHAINDBSTRING, args[0], args[1:], nil
	}
	if len(args) > 0 && (args[0] == "env" || args[0] == "create") {
		return "", "", args[0], args[1:], nil
	}
	if len(args) < 3 {
		return "", "", "", nil, errUsage
	}
	return args[0], args[1], args[2], args[3:], nil
}

// dialectFor maps a driver name from the command line to a dialect and a registered database/sql
// driver.
func dialectFor(driver string) (database.Dialect, string, error) {
	switch driver {
	case "postgres", "pgx":
		return database.DialectPostgres, "pgx", nil
	case "redshift":
		return database.DialectRedshift, "pgx", nil
	case "mysql":
		return database.DialectMySQL, "mysql", nil
	case "mymysql":
		return database.DialectMySQL, "mymysql", nil
	case "tidb":
		return database.DialectTiDB, "mysql", nil
	case "sqlite3", "sqlite":
		return database.DialectSQLite3, "sqlite", nil
	case "turso", "libsql":
		return database.DialectTurso, "libsql", nil
	case "mssql", "sqlserver", "azuresql":
		return database.DialectMSSQL, "sqlserver", nil
	case "clickhouse":
		return database.DialectClickHouse, "clickhouse", nil
	case "vertica":
		return database.DialectVertica, "vertica", nil
	}
	return "", "", fmt.Errorf("%q driver not supported", driver)
}

func newProvider(dialect database.Dialect, db *sql.DB, opt options) (*schemachain.Provider, error) {
	opts := []schemachain.ProviderOption{
		schemachain.WithTableName(firstNonEmpty(opt.table, cfg.SCHEMACHAINTABLE, cfg.DefaultTable)),
		schemachain.WithVerbose(opt.verbose || cfg.Verbose()),
		// status and version describe a dirty database instead of failing on it.
		schemachain.WithAllowDirty(true),
	}
	switch mode := firstNonEmpty(opt.lock, cfg.SCHEMACHAINLOCK); mode {
	case "", "none":
	case "table":
		locker, err := lock.NewTableLocker(dialect)
		if err != nil {
			return nil, err
		}
		opts = append(opts, schemachain.WithSessionLocker(locker))
	case "advisory":
		if dialect != database.DialectPostgres {
			return nil, fmt.Errorf("advisory locks require postgres, not %s", dialect)
		}
		locker, err := lock.NewPostgresSessionLocker()
		if err != nil {
			return nil, err
		}
		opts = append(opts, schemachain.WithSessionLocker(locker))
	default:
		return nil, fmt.Errorf("unknown lock mode %q", mode)
	}
	return schemachain.NewProvider(dialect, db, migrations.Steps(), opts...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func usage(flags *flag.FlagSet) {
	out := flags.Output()
	fmt.Fprint(out, usagePrefix)
	flags.PrintDefaults()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nCommands:")
	for _, c := range commands {
		fmt.Fprintf(w, "    %s\t%s\n", strings.TrimSpace(c.name+" "+c.args), c.summary)
	}
	_ = w.Flush()
}

const usagePrefix = `Usage: schemachain [OPTIONS] DRIVER DBSTRING COMMAND

or

Set environment key
SCHEMACHAIN_DRIVER=DRIVER
SCHEMACHAIN_DBSTRING=DBSTRING

Usage: schemachain [OPTIONS] COMMAND

Drivers:
    postgres
    redshift
    mysql
    mymysql
    tidb
    sqlite3
    turso
    mssql
    clickhouse
    vertica

Examples:
    schemachain sqlite3 ./stock.db status
    schemachain sqlite3 ./stock.db up
    schemachain postgres "user=postgres dbname=stockdesk sslmode=disable" up-to 004_add_telegram_id
    schemachain mysql "user:password@/stockdesk" down
    schemachain -from 003_add_product_usd_color postgres "" sql head
    schemachain -dir ./migrations create add_customer_email

    SCHEMACHAIN_DRIVER=sqlite3 SCHEMACHAIN_DBSTRING=./stock.db schemachain status
    SCHEMACHAIN_DRIVER=postgres SCHEMACHAIN_DBSTRING="postgres://${PGUSER}@localhost/stockdesk" schemachain up

Options:
`

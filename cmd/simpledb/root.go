package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/koustreak/simpledb/internal/audit"
	"github.com/koustreak/simpledb/internal/config"
	"github.com/koustreak/simpledb/internal/database"
	"github.com/koustreak/simpledb/internal/errs"
	"github.com/koustreak/simpledb/internal/logger"
	"github.com/spf13/cobra"

	_ "github.com/koustreak/simpledb/internal/database/mysql"
	_ "github.com/koustreak/simpledb/internal/database/postgres"
	_ "github.com/koustreak/simpledb/internal/database/sqlite"
)

var version = "dev"

var _ database.Auditor = (*audit.Log)(nil)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		if errs.IsConnectionFailed(err) {
			// Nothing works without a connection: report the driver's own words.
			fmt.Fprintf(stderr, "Connection failed: %s\n", errs.Cause(err))
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// app is the state shared by every subcommand once the config is loaded.
type app struct {
	configPath string
	logOutput  io.Writer

	file  *config.File
	log   *logger.Logger
	audit *audit.Log
}

func newRootCmd(logOutput io.Writer) *cobra.Command {
	a := &app{logOutput: logOutput}

	root := &cobra.Command{
		Use:           "simpledb",
		Short:         "Run SQL through a single audited connection",
		Long: "Run SQL through a single audited connection.\n\n" +
			"Supported dbtype values: " + strings.Join(database.Drivers(), ", "),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath, "Configuration file (.ini, .yaml or .yml)")

	root.AddCommand(newCountCmd(a))
	root.AddCommand(newQueryCmd(a))
	root.AddCommand(newRowCmd(a))
	root.AddCommand(newColumnCmd(a))
	root.AddCommand(newAuditCmd(a))
	root.AddCommand(newServeCmd(a))

	return root
}

func (a *app) load() error {
	f, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.file = f

	lcfg := f.LoggerConfig()
	lcfg.Output = a.logOutput
	a.log = logger.New(lcfg)

	a.audit = audit.New(f.AuditConfig())
	return nil
}

// open connects with the loaded config. The caller closes the Conn.
func (a *app) open(ctx context.Context) (*database.Conn, error) {
	cfg, err := a.file.DatabaseConfig()
	if err != nil {
		return nil, err
	}
	return database.New(ctx, cfg, database.WithAuditor(a.audit), database.WithLogger(a.log))
}

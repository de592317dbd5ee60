// Package cli is the photoagency command line: server, migrations, and one-shot billing commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"photo-agency/internal/config"
	"photo-agency/internal/db"
	"photo-agency/internal/logger"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

// state is shared between the root command's hooks and its subcommands.
type state struct {
	cfg         *config.Config
	rt          *Runtime
	companyCode string
	jsonOut     bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:   "photoagency",
		Short: "Order and invoicing back office for a property photography agency",
		Long: `photoagency manages customers, products, photo orders and invoices.

Configuration is read from the environment (and a .env file when present):
  DATABASE_URL    - PostgreSQL connection string (required)
  COMPANY_CODE    - tenant used when more than one company exists
  VAT_MODE        - per_line (default) or flat
  JWT_SECRET      - HMAC secret for API tokens (serve only)`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
				return fmt.Errorf("invalid log configuration: %w", err)
			}
			st.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if st.rt != nil {
				st.rt.Close()
			}
		},
	}

	root.PersistentFlags().StringVarP(&st.companyCode, "company", "c", "", "company code (defaults to COMPANY_CODE or the only company)")
	root.PersistentFlags().BoolVar(&st.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		newServeCmd(st),
		newMigrateCmd(st),
		newCompanyCmd(st),
		newUserCmd(st),
		newCustomerCmd(st),
		newProductCmd(st),
		newOrderCmd(st),
		newInvoiceCmd(st),
		newReportCmd(st),
		newExportCmd(st),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	log := logger.WithComponent("cmd")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// runtime lazily connects; commands that never touch the database skip it.
func (st *state) runtime(ctx context.Context) (*Runtime, error) {
	if st.rt != nil {
		return st.rt, nil
	}
	rt, err := NewRuntime(ctx, st.cfg)
	if err != nil {
		return nil, err
	}
	st.rt = rt
	return rt, nil
}

// company resolves the --company flag, falling back to the default company.
func (st *state) company(ctx context.Context) (*Runtime, string, error) {
	rt, err := st.runtime(ctx)
	if err != nil {
		return nil, "", err
	}
	if st.companyCode != "" {
		return rt, st.companyCode, nil
	}
	c, err := rt.Service.LoadDefaultCompany(ctx)
	if err != nil {
		return nil, "", err
	}
	return rt, c.CompanyCode, nil
}

func newServeCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the billing scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := st.runtime(cmd.Context())
			if err != nil {
				return err
			}
			return Serve(cmd.Context(), rt)
		},
	}
}

func newMigrateCmd(st *state) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := db.NewPool(cmd.Context(), st.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := db.Migrate(cmd.Context(), pool, dir); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations", "directory containing NNN_name.sql files")
	return cmd
}

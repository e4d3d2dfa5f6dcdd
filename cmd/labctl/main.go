package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aniemarie21/maes-laboratory-system/internal/audit"
	"github.com/aniemarie21/maes-laboratory-system/internal/booking"
	"github.com/aniemarie21/maes-laboratory-system/internal/catalog"
	"github.com/aniemarie21/maes-laboratory-system/internal/events"
	"github.com/aniemarie21/maes-laboratory-system/internal/gateway"
	"github.com/aniemarie21/maes-laboratory-system/internal/seed"
	"github.com/aniemarie21/maes-laboratory-system/pkg/config"
	"github.com/aniemarie21/maes-laboratory-system/pkg/database"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// cliActor is the identity labctl acts as
var cliActor = types.Actor{UserID: "labctl", Role: types.RoleAdmin}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "labctl",
		Short:        "Administrative tasks for the MAES laboratory booking service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(tokenCmd())
	return rootCmd
}

// connect loads configuration and opens the database
func connect() (*config.Config, *database.DB, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.NewWithOutput(cfg.LogLevel, os.Stderr)

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, db, log, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, _, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.CreateSchema(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample departments and services",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, log, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := seed.Load(cmd.Context(), catalog.NewRepository(db, log), seed.Catalog, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d department(s) and %d service(s).\n", res.Departments, res.Services)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export appointments as csv or xlsx",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			out, _ := cmd.Flags().GetString("out")
			status, _ := cmd.Flags().GetString("status")
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")

			cfg, db, log, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			loc, err := time.LoadLocation(cfg.Booking.Timezone)
			if err != nil {
				return fmt.Errorf("invalid booking timezone: %w", err)
			}

			filters, err := exportFilters(status, from, to, loc)
			if err != nil {
				return err
			}

			appointments := booking.NewRepository(db, log)
			validator, err := booking.NewValidator(appointments, cfg.Booking, loc)
			if err != nil {
				return err
			}
			dispatcher := events.NewDispatcher(log, audit.NewRecorder(audit.NewRepository(db, log)))
			svc := booking.NewService(appointments, catalog.NewRepository(db, log), validator,
				booking.NewPricer(booking.NewConfigRates(cfg.Pricing)), dispatcher, nil, log, loc)

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return svc.Export(cmd.Context(), filters, format, w, cliActor)
		},
	}
	cmd.Flags().String("format", "csv", "Export format: csv or xlsx")
	cmd.Flags().String("out", "", "Output file (defaults to stdout)")
	cmd.Flags().String("status", "", "Only appointments in this status")
	cmd.Flags().String("from", "", "First day to include, YYYY-MM-DD")
	cmd.Flags().String("to", "", "Last day to include, YYYY-MM-DD")
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token USER_ID",
		Short: "Issue a signed bearer token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roleFlag, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			role, err := types.ParseRole(roleFlag)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			token, err := gateway.NewTokenValidator(cfg.JWT).IssueToken(&types.UserClaims{
				UserID:   args[0],
				Username: args[0],
				Role:     role,
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("role", string(types.RolePatient), "Role claim: patient, technician, doctor, receptionist or admin")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	return cmd
}

// exportFilters turns the export flags into filters. The --to day is
// inclusive, so the stored upper bound is midnight of the following day.
func exportFilters(status, from, to string, loc *time.Location) (*types.AppointmentFilters, error) {
	filters := &types.AppointmentFilters{Status: types.AppointmentStatus(status)}

	var err error
	if filters.FromDate, err = parseDay(from, loc); err != nil {
		return nil, err
	}
	if filters.ToDate, err = parseDay(to, loc); err != nil {
		return nil, err
	}
	if !filters.ToDate.IsZero() {
		filters.ToDate = filters.ToDate.AddDate(0, 0, 1)
	}
	return filters, nil
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

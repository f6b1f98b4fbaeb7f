package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jwalitptl/clinic-scheduler/internal/app"
	"github.com/jwalitptl/clinic-scheduler/internal/config"
	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/postgres"
	"github.com/jwalitptl/clinic-scheduler/pkg/auth"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "clinicctl",
		Short:         "Operate the clinic scheduling database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yml")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(findSlotCmd())
	rootCmd.AddCommand(bookCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(viper.New(), configPath)
}

// withServices opens the database, wires the service layer and runs fn.
func withServices(ctx context.Context, fn func(*app.Services) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	appLogger := app.NewLogger(cfg.Logging)
	log.Logger = appLogger.ZL

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	services, err := app.NewServices(ctx, cfg, db, appLogger, metrics.NewMetrics("clinic", "cli", nil))
	if err != nil {
		return err
	}
	defer services.AuditLogger.Wait()
	return fn(services)
}

func withDB(fn func(*sqlx.DB, *logger.Logger) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	appLogger := app.NewLogger(cfg.Logging)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db, appLogger)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *sqlx.DB, l *logger.Logger) error {
				if err := postgres.Migrate(cmd.Context(), db); err != nil {
					return err
				}
				l.Info("schema applied")
				return nil
			})
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo clinics, services, doctors and patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(s *app.Services) error {
				if err := s.Seed(cmd.Context()); err != nil {
					return err
				}
				log.Info().Msg("demo data loaded")
				return nil
			})
		},
	}
}

func findSlotCmd() *cobra.Command {
	var clinicName, doctorName, serviceName, start string

	cmd := &cobra.Command{
		Use:   "find-slot",
		Short: "Show the first free slot at or after a time without booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(s *app.Services) error {
				requested, err := time.ParseInLocation("2006-01-02 15:04", start, s.Location)
				if err != nil {
					return fmt.Errorf("--start must look like 2025-03-10 09:00: %w", err)
				}
				ctx := cmd.Context()
				clinic, err := s.Directory.ClinicByName(ctx, clinicName)
				if err != nil {
					return err
				}
				doctor, err := s.Directory.ClinicianByName(ctx, clinic.ID, doctorName)
				if err != nil {
					return err
				}
				svc, err := s.Directory.ServiceByName(ctx, clinic.ID, serviceName)
				if err != nil {
					return err
				}

				offer, err := s.Appointments.FindSlot(ctx, doctor.ID, clinic.ID, svc.ID, requested)
				if err != nil {
					return err
				}
				return printJSON(cmd, offer)
			})
		},
	}
	cmd.Flags().StringVar(&clinicName, "clinic", "", "clinic name")
	cmd.Flags().StringVar(&doctorName, "doctor", "", "doctor name")
	cmd.Flags().StringVar(&serviceName, "service", "", "service name")
	cmd.Flags().StringVar(&start, "start", "", "requested start, local time (2006-01-02 15:04)")
	for _, f := range []string{"clinic", "doctor", "service", "start"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func bookCmd() *cobra.Command {
	var req model.ScheduleByNameRequest
	var start string

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment by clinic, doctor, service and patient name",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(s *app.Services) error {
				requested, err := time.ParseInLocation("2006-01-02 15:04", start, s.Location)
				if err != nil {
					return fmt.Errorf("--start must look like 2025-03-10 09:00: %w", err)
				}
				req.StartTime = requested

				booking, err := s.Appointments.ScheduleByNames(cmd.Context(), &req, "clinicctl")
				if err != nil {
					return err
				}
				return printJSON(cmd, booking)
			})
		},
	}
	cmd.Flags().StringVar(&req.ClinicName, "clinic", "", "clinic name")
	cmd.Flags().StringVar(&req.ClinicianName, "doctor", "", "doctor name")
	cmd.Flags().StringVar(&req.ServiceName, "service", "", "service name")
	cmd.Flags().StringVar(&req.PatientName, "patient", "", "patient name")
	cmd.Flags().StringVar(&req.PersonalID, "personal-id", "", "register the patient with this personal ID if unknown")
	cmd.Flags().BoolVar(&req.AcceptAlternative, "accept-alternative", false, "book the next free slot when the requested one is taken")
	cmd.Flags().StringVar(&start, "start", "", "requested start, local time (2006-01-02 15:04)")
	for _, f := range []string{"clinic", "doctor", "service", "patient", "start"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func tokenCmd() *cobra.Command {
	var subject, role string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token for an operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("jwt.secret is not configured")
			}
			tokens := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
			token, err := tokens.GenerateAccessToken(subject, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "operator id recorded in the audit trail")
	cmd.Flags().StringVar(&role, "role", "operator", "role claim")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

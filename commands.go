package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"barberpro-backend/cache"
	"barberpro-backend/config"
	"barberpro-backend/models"
	"barberpro-backend/report"
	"barberpro-backend/repository"
	"barberpro-backend/routes"
	"barberpro-backend/services"
	"barberpro-backend/storage"
	"barberpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "barberpro",
		Short:         "302 Barber booking and back-office backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newCreateAdminCmd(),
		newExportCmd(),
	)
	return root
}

// bootstrap loads settings and opens a migrated database.
func bootstrap() (*config.Settings, *gorm.DB, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	config.SetLogLevel(settings.LogLevel)

	db, err := config.ConnectDB(settings)
	if err != nil {
		return nil, nil, err
	}
	if err := config.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return settings, db, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reminder scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	settings, db, err := bootstrap()
	if err != nil {
		return err
	}
	logger := config.GetLogger()

	if settings.JWTSecret == "" {
		settings.JWTSecret = utils.GenerateJWTSecret()
		logger.Warn("JWT_SECRET not set, using a random secret; sessions will not survive a restart")
	}
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := routes.Dependencies{DB: db, Settings: settings}

	if settings.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, settings.RedisAddr)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, using in-memory cache")
		} else {
			defer rc.Close()
			deps.Cache = rc
			deps.Locker = services.RedisLocker{Client: rc.Locker()}
		}
	}

	if settings.GCSBucket != "" {
		gcs, err := storage.NewGCSStore(ctx, settings.GCSBucket, settings.GCSCredentialsJSON)
		if err != nil {
			return err
		}
		defer gcs.Close()
		deps.Images = gcs
	}

	if settings.TwilioEnabled() {
		deps.Notifier = services.NewTwilioNotifier(settings)
	} else {
		logger.Info("Twilio credentials not set, reminders will only be logged")
	}

	app := routes.New(deps)
	if err := app.Reminders.StartScheduler(settings.ReminderCron); err != nil {
		return err
	}
	defer app.Reminders.StopScheduler()

	printRoutes(app.Router)

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.WithField("port", settings.Port).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, _, err := bootstrap(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database migrated")
			return nil
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a back-office user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" || len(password) < 8 {
				return errors.New("--email and a --password of at least 8 characters are required")
			}
			_, db, err := bootstrap()
			if err != nil {
				return err
			}

			user := &models.AdminUser{Email: email, Password: password, IsActive: true}
			if name = strings.TrimSpace(name); name != "" {
				user.FullName = &name
			}
			users := repository.New[models.AdminUser](db, "admin_users")
			if err := users.Create(cmd.Context(), user); err != nil {
				if errors.Is(err, repository.ErrUniqueViolation) {
					return fmt.Errorf("an admin with email %s already exists", email)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	cmd.Flags().StringVar(&name, "name", "", "full name")
	return cmd
}

func newExportCmd() *cobra.Command {
	var format, filter, from, to, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the work registry report to a directory",
		Long: `Render the work registry for a date filter and save it under --out.

Examples:
  export --filter month
  export --format xlsx --filter custom --from 2024-06-01 --to 2024-06-30`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			df, err := services.ParseDateFilter(filter, from, to)
			if err != nil {
				return err
			}
			settings, db, err := bootstrap()
			if err != nil {
				return err
			}

			registry := services.NewWorkRegistry(repository.New[models.WorkRecord](db, "work_records"), settings.Now)
			agg, err := registry.Aggregate(cmd.Context(), df)
			if err != nil {
				return err
			}
			data, err := report.Render(f, report.FromAggregate(agg))
			if err != nil {
				return err
			}
			path, err := report.DirSink{Dir: out}.Save(report.FileName(f, agg.GeneratedAt), f.ContentType(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d records, total %s -> %s\n",
				agg.Stats.Count, report.FormatMoney("Gs. ", agg.Stats.Total), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "pdf", "pdf or xlsx")
	cmd.Flags().StringVar(&filter, "filter", "all", "all, today, month or custom")
	cmd.Flags().StringVar(&from, "from", "", "first day for --filter custom (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day for --filter custom (YYYY-MM-DD)")
	cmd.Flags().StringVar(&out, "out", ".", "output directory")
	return cmd
}

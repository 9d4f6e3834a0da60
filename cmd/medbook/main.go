package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/repository/postgres"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/server"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/service"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/medbook/pkg/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "medbook",
		Short:         "Clinic appointment booking API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create schemas, tables and indexes; optionally seed an admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("admin-username")
			password, _ := cmd.Flags().GetString("admin-password")
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			return runMigrate(cmd.Context(), username, password)
		},
	}
	cmd.Flags().String("admin-username", "", "Seed or reset this admin account after migrating")
	cmd.Flags().String("admin-password", "", "Password for --admin-username (defaults to $ADMIN_PASSWORD)")
	return cmd
}

func runMigrate(ctx context.Context, username, password string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	if username == "" {
		return nil
	}

	auditSvc := service.NewAuditService(postgres.NewAuditRepository(db), metrics.NewNop(), log)
	defer auditSvc.Shutdown()

	authSvc := service.NewAuthService(
		postgres.NewAdminRepository(db),
		postgres.NewDoctorRepository(db),
		postgres.NewPatientRepository(db),
		auth.NewJWTManager(cfg.JWT),
		auditSvc,
		log,
	)
	if err := authSvc.EnsureAdmin(ctx, username, password); err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}
	log.Info("admin account ready", zap.String("username", username))
	return nil
}

func runServer(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return err
	}
	defer a.close()

	srv := server.NewHTTPServer(cfg.Server, a.router)
	if err := server.Run(ctx, srv, cfg.Server.ShutdownTimeout, log); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return err
	}
	log.Info("server exited")
	return nil
}

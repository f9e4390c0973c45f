package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"propertyhub/internal/config"
	"propertyhub/internal/database"
	"propertyhub/internal/identity"
	"propertyhub/internal/log"
	"propertyhub/internal/models"
	"propertyhub/internal/repository"
	"propertyhub/internal/service"
)

type env struct {
	cfg    *config.AppConfig
	logger zerolog.Logger
	db     *gorm.DB
	close  func()
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := log.Component(log.New(cfg.Environment), "propctl")

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db, err := database.OpenGorm(pool, cfg.Postgres, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db, close: pool.Close}, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			if err := database.Migrate(e.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
			return nil
		},
	}
}

func bootstrapAdminCmd() *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create the first ADMIN user together with its login",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			if err := database.Migrate(e.db); err != nil {
				return err
			}

			provider := identity.NewLocalProvider(e.db, e.cfg.Security.SessionSecret, e.cfg.Security.SessionTTL)
			auth := service.NewAuthService(provider, repository.NewUserRepository(e.db), repository.NewOrganizationRepository(e.db), e.logger)

			user, err := auth.CreateUser(cmd.Context(), service.CreateUserInput{
				Email:    email,
				Name:     name,
				Role:     models.UserRoleAdmin,
				Password: &password,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&name, "name", "Administrator", "admin display name")
	cmd.Flags().StringVar(&password, "password", "", "admin password (min 8 characters)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func tokenCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for an existing identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			provider := identity.NewLocalProvider(e.db, e.cfg.Security.SessionSecret, e.cfg.Security.SessionTTL)
			session, err := provider.IssueSession(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("issue session for %s: %w", email, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), session.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "identity email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

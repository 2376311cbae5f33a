package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"membership/internal/auth"
	"membership/internal/config"
	"membership/internal/db"
	apperrors "membership/internal/errors"
	"membership/internal/logger"
	"membership/internal/model"
	"membership/internal/repository"
	"membership/internal/service"
	"membership/internal/validation"
)

func main() {
	cmd := newRootCommand(&app{})
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the services a command runs against. They are built lazily so
// that --help never touches the database.
type app struct {
	log   logger.Logger
	auth  service.AuthService
	users service.UserService
	close func() error
}

func (a *app) open() error {
	if a.users != nil {
		return nil
	}
	cfg := config.Load()
	a.log = logger.New(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN())
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		_ = db.Close(gormDB)
		return err
	}

	userRepo := repository.NewUserRepository(gormDB)
	// Accounts are created without signing in, so no session store is needed.
	a.auth = service.NewAuthService(userRepo, nil, auth.NewPasswordHasher(cfg.BcryptCost), validation.New())
	a.users = service.NewUserService(userRepo)
	a.close = func() error { return db.Close(gormDB) }
	return nil
}

func (a *app) shutdown() {
	if a.close != nil {
		_ = a.close()
	}
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Manage membership accounts and roles from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			a.shutdown()
		},
	}
	cmd.AddCommand(newAdminCommand(a))
	cmd.AddCommand(newRoleCommand(a, "promote", "Grant the admin role to an existing account", func(ctx context.Context, email string) error {
		return a.users.Promote(ctx, email)
	}))
	cmd.AddCommand(newRoleCommand(a, "demote", "Revert an account to the user role", func(ctx context.Context, email string) error {
		return a.users.Demote(ctx, email)
	}))
	cmd.AddCommand(newListCommand(a))
	return cmd
}

func newAdminCommand(a *app) *cobra.Command {
	var req service.SignupRequest
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Create an admin account, or promote it if the email is already registered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			return seedAdmin(cmd.Context(), cmd.OutOrStdout(), a, req)
		},
	}
	cmd.Flags().StringVar(&req.FirstName, "first-name", "Admin", "First name of the admin account")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email of the admin account")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password of the admin account")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func seedAdmin(ctx context.Context, out io.Writer, a *app, req service.SignupRequest) error {
	// Register matches on the normalized email, so promotion must too.
	req = req.Normalize()
	_, err := a.auth.Register(ctx, req)
	switch {
	case errors.Is(err, apperrors.ErrDuplicateEmail):
		a.log.Info("account exists, promoting", "email", req.Email)
	case err != nil:
		return err
	}

	if err := a.users.Promote(ctx, req.Email); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s is an admin\n", req.Email)
	return nil
}

func newRoleCommand(a *app, use, short string, apply func(ctx context.Context, email string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " EMAIL",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			// Role changes on unknown emails are silent no-ops in the service.
			email := strings.TrimSpace(args[0])
			if _, err := a.users.GetByEmail(cmd.Context(), email); err != nil {
				return err
			}
			if err := apply(cmd.Context(), email); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", use, email)
			return nil
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	var roleFilter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every account with its role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var want model.Role
			if roleFilter != "" {
				role, ok := model.ParseRole(roleFilter)
				if !ok {
					return fmt.Errorf("unknown role %q (want %s or %s)", roleFilter, model.RoleUser, model.RoleAdmin)
				}
				want = role
			}
			if err := a.open(); err != nil {
				return err
			}
			users, err := a.users.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tFIRST NAME\tROLE\tCREATED")
			for _, u := range users {
				if want != "" && u.Role != want {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.Email, u.FirstName, u.Role, u.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&roleFilter, "role", "", "Only list accounts with this role (user or admin)")
	return cmd
}

package main

import (
	"errors"
	"fmt"

	"event-site/internal/cache"
	"event-site/internal/config"
	"event-site/internal/data"
	"event-site/internal/service"

	"github.com/spf13/cobra"
)

var (
	adminUsername string
	adminEmail    string
	adminPassword string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		e.log.Info("Migrations applied successfully.")
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	RunE:  runCreateAdmin,
}

var setPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Change the password of an existing user",
	RunE:  runSetPassword,
}

var pruneCacheCmd = &cobra.Command{
	Use:   "prune-cache",
	Short: "Remove expired entries from the cache database",
	RunE:  runPruneCache,
}

func init() {
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "admin", "Login name of the new administrator")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Email address, used for single sign-on")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Password (at least 8 characters)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	setPasswordCmd.Flags().StringVar(&adminUsername, "username", "admin", "Login name of the user")
	setPasswordCmd.Flags().StringVar(&adminPassword, "password", "", "New password (at least 8 characters)")
	_ = setPasswordCmd.MarkFlagRequired("password")
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	accounts := service.NewAccountService(data.NewUserRepository(e.db), e.log)
	user, err := accounts.CreateAdmin(cmd.Context(), adminUsername, adminEmail, adminPassword)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created administrator %s (id %d)\n", user.Username, user.ID)
	return nil
}

func runSetPassword(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	accounts := service.NewAccountService(data.NewUserRepository(e.db), e.log)
	if err := accounts.SetPassword(cmd.Context(), adminUsername, adminPassword); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return fmt.Errorf("no user named %q", adminUsername)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", adminUsername)
	return nil
}

func runPruneCache(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	kv, err := cache.New(cfg.Cache)
	if err != nil {
		return err
	}
	defer kv.Close()

	n, err := kv.Prune()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries\n", n)
	return nil
}

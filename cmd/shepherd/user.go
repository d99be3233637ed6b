package main

import (
	"fmt"
	"os"

	"github.com/shepherd-church/shepherd/internal/config"
	"github.com/shepherd-church/shepherd/internal/db"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	userEmail string
	userRole  string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create an account",
	Long: `Create an account directly in the configured database. The password is
read from the terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: runUserCreate,
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Email address (default <username>@shepherd.local)")
	userCreateCmd.Flags().StringVar(&userRole, "role", string(models.RoleUser), "Role: super_admin, admin, user or member")
	userCmd.AddCommand(userCreateCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	username := args[0]

	role, err := models.ParseRole(userRole)
	if err != nil {
		return err
	}
	email := userEmail
	if email == "" {
		email = username + "@shepherd.local"
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	database, err := db.New(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.Migrate(database); err != nil {
		return err
	}

	user, err := db.CreateUser(database, username, email, password, role)
	if err != nil {
		return err
	}

	fmt.Printf("User created successfully!\n")
	fmt.Printf("ID: %s\n", user.ID)
	fmt.Printf("Username: %s\n", user.Username)
	fmt.Printf("Role: %s\n", user.Role)
	return nil
}

func readPassword() (string, error) {
	fmt.Print("Password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	fmt.Print("Confirm password: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	if len(first) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}
	return string(first), nil
}

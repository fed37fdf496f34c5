// Command createadmin creates or resets an Admin account.
//
//	createadmin -email ops@symbria.com -first Ops -last Team
//
// The password is read from the terminal without echo.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"rx-logistics/internal/config"
	"rx-logistics/internal/infrastructure/database/postgres"
	"rx-logistics/internal/logger"
	"rx-logistics/internal/usecase/user"
	"rx-logistics/pkg/utils"

	"golang.org/x/term"
)

// readPassword is swapped in tests to avoid touching the terminal.
var readPassword = term.ReadPassword

func main() {
	email := flag.String("email", "", "admin email address")
	firstName := flag.String("first", "Admin", "first name")
	lastName := flag.String("last", "User", "last name")
	flag.Parse()

	if err := run(*email, *firstName, *lastName, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "createadmin:", err)
		os.Exit(1)
	}
}

func run(email, firstName, lastName string, w io.Writer) error {
	if email == "" {
		return fmt.Errorf("-email is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Server.Environment); err != nil {
		return err
	}
	defer logger.Sync()

	req, err := promptRequest(email, firstName, lastName, w)
	if err != nil {
		return err
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	svc := user.NewService(postgres.NewUserRepository(db), postgres.NewRefreshTokenRepository(db), cfg)
	admin, err := svc.EnsureAdmin(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Admin account ready: %s (%s)\n", admin.Email, admin.ID)
	return nil
}

// promptRequest asks for the password twice and checks it locally before
// anything touches the database.
func promptRequest(email, firstName, lastName string, w io.Writer) (*user.RegisterRequest, error) {
	password, err := promptPassword(w, "Password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := promptPassword(w, "Confirm password: ")
	if err != nil {
		return nil, err
	}

	if err := utils.ValidatePassword(password); err != nil {
		return nil, err
	}
	if password != confirm {
		return nil, fmt.Errorf("passwords do not match")
	}

	return &user.RegisterRequest{
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
		FirstName:       firstName,
		LastName:        lastName,
	}, nil
}

func promptPassword(w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"tutorhub/pkg/model"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errEmptyPassword = errors.New("password cannot be empty")
)

// accountService is the part of the user service the CLI drives.
type accountService interface {
	CreateAdmin(ctx context.Context, name, email, password string) (*model.User, error)
	SetPasswordByEmail(ctx context.Context, email, password string) error
	SetActiveByEmail(ctx context.Context, email string, active bool) error
}

func newApp(svc accountService, out io.Writer) *cli.App {
	emailFlag := &cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "account email", Required: true}

	return &cli.App{
		Name:      "tutorhub-admin",
		Usage:     "manage TutorHub accounts",
		Writer:    out,
		ErrWriter: out,
		Commands: []*cli.Command{
			{
				Name:  "create-admin",
				Usage: "create an admin account; the password is prompted",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "display name", Required: true},
					emailFlag,
				},
				Action: func(c *cli.Context) error {
					password, err := promptPassword(out)
					if err != nil {
						return err
					}
					user, err := svc.CreateAdmin(c.Context, c.String("name"), c.String("email"), password)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "created admin %s (%s)\n", user.Email, user.ID)
					return nil
				},
			},
			{
				Name:  "reset-password",
				Usage: "set a new password for an account; the password is prompted",
				Flags: []cli.Flag{emailFlag},
				Action: func(c *cli.Context) error {
					password, err := promptPassword(out)
					if err != nil {
						return err
					}
					if err := svc.SetPasswordByEmail(c.Context, c.String("email"), password); err != nil {
						return err
					}
					fmt.Fprintf(out, "password updated for %s\n", c.String("email"))
					return nil
				},
			},
			{
				Name:  "set-active",
				Usage: "activate or deactivate an account",
				Flags: []cli.Flag{
					emailFlag,
					&cli.BoolFlag{Name: "active", Value: true, Usage: "false deactivates the account"},
				},
				Action: func(c *cli.Context) error {
					active := c.Bool("active")
					if err := svc.SetActiveByEmail(c.Context, c.String("email"), active); err != nil {
						return err
					}
					fmt.Fprintf(out, "%s is_active=%t\n", c.String("email"), active)
					return nil
				},
			},
		},
	}
}

func promptPassword(out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter password: ")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errEmptyPassword
	}
	return string(pwd), nil
}

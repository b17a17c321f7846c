// Package console is the interactive terminal front-end of the admin client.
// It only collects input and renders results; every decision lives in the
// usecases underneath.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"console/config"
	"console/internal/delivery"
	domainerrors "console/internal/domain/errors"
	"console/internal/errors"
	"console/internal/usecase"
	"console/internal/util"

	"go.uber.org/fx"
)

type consoleDelivery struct {
	cfg    *config.Config
	logger *slog.Logger
	auth   usecase.AuthUsecase
	flows  usecase.FlowFactory

	in  *bufio.Reader
	out io.Writer
}

// Params holds dependencies for the console delivery
type Params struct {
	fx.In

	Cfg    *config.Config
	Logger *slog.Logger
	Auth   usecase.AuthUsecase
	Flows  usecase.FlowFactory
}

// New creates the terminal delivery.
func New(params Params) delivery.Delivery {
	return &consoleDelivery{
		cfg:    params.Cfg,
		logger: params.Logger,
		auth:   params.Auth,
		flows:  params.Flows,
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Serve runs the prompt loop until the operator quits or stdin closes.
func (d *consoleDelivery) Serve(ctx context.Context) error {
	fmt.Fprintln(d.out, "Admin console. Type 'help' for commands.")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		d.showPrompt()
		line, err := d.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			return errors.Wrap(err, "read command")
		}

		if quit := d.dispatch(ctx, line); quit {
			return nil
		}
	}
}

func (d *consoleDelivery) showPrompt() {
	if user := d.auth.CurrentUser(); user != nil {
		fmt.Fprintf(d.out, "%s> ", user.Email)

		return
	}
	fmt.Fprint(d.out, "> ")
}

func (d *consoleDelivery) dispatch(ctx context.Context, command string) (quit bool) {
	switch command {
	case "help", "":
		d.printHelp()
	case "login":
		d.runLogin(ctx)
	case "profile":
		d.printProfile()
	case "change-password":
		d.runChangePassword(ctx)
	case "forgot-password":
		d.runForgotPassword(ctx)
	case "logout":
		d.auth.Logout(ctx)
		fmt.Fprintln(d.out, "Signed out.")
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(d.out, "Unknown command %q. Type 'help' for commands.\n", command)
	}

	return false
}

func (d *consoleDelivery) printHelp() {
	fmt.Fprintln(d.out, "Commands: login, profile, change-password, forgot-password, logout, quit")
}

func (d *consoleDelivery) printProfile() {
	user := d.auth.CurrentUser()
	if user == nil {
		fmt.Fprintln(d.out, "Not signed in.")

		return
	}

	fmt.Fprintf(d.out, "id:    %s\nemail: %s\nname:  %s\n", user.ID, user.Email, user.Name)
}

func (d *consoleDelivery) runLogin(ctx context.Context) {
	email := d.ask("Email: ")
	password := d.ask("Password: ")

	session, err := d.auth.Login(ctx, &usecase.LoginInput{Email: email, Password: password})
	if err != nil {
		d.printError(err)

		return
	}

	fmt.Fprintf(d.out, "Welcome, %s.\n", session.User.Email)
}

func (d *consoleDelivery) runChangePassword(ctx context.Context) {
	input := &usecase.ChangePasswordInput{
		CurrentPassword: d.ask("Current password: "),
		NewPassword:     d.ask("New password: "),
		ConfirmPassword: d.ask("Confirm new password: "),
	}

	flow := d.flows.PasswordChange(input)
	defer flow.Dispose()

	if err := flow.Begin(ctx); err != nil {
		d.printError(err)

		return
	}

	d.driveOTP(ctx, flow)
}

func (d *consoleDelivery) runForgotPassword(ctx context.Context) {
	email := d.ask("Account email: ")
	credentials := &usecase.ResetPasswordInput{
		NewPassword:     d.ask("New password: "),
		ConfirmPassword: d.ask("Confirm new password: "),
	}

	flow := d.flows.PasswordReset(email, credentials)
	defer flow.Dispose()

	if err := flow.Begin(ctx); err != nil {
		d.printError(err)

		return
	}

	d.driveOTP(ctx, flow)
}

// driveOTP loops on the awaiting-OTP screen until the flow finishes or the
// operator cancels.
func (d *consoleDelivery) driveOTP(ctx context.Context, flow usecase.OTPFlow) {
	fmt.Fprintln(d.out, "A verification code has been sent to your email.")

	for flow.State() == usecase.StateAwaitingOTP {
		if flow.Expired() {
			fmt.Fprintln(d.out, "The code has expired. Type 'r' to resend or 'c' to cancel.")
		} else {
			remaining := time.Duration(flow.Remaining()) * time.Second
			fmt.Fprintf(d.out, "Code expires in %s.\n", util.FormatDuration(remaining))
		}

		answer := d.ask("OTP ('r' to resend, 'c' to cancel): ")
		switch answer {
		case "c":
			flow.Cancel()
			fmt.Fprintln(d.out, "Cancelled.")

			return
		case "r":
			if err := flow.Resend(ctx); err != nil {
				d.printError(err)

				continue
			}
			fmt.Fprintln(d.out, "A new code has been sent.")
		default:
			if err := flow.Submit(ctx, answer); err != nil {
				d.printError(err)
			}
		}
	}

	if flow.State() == usecase.StateDone {
		fmt.Fprintln(d.out, "Password updated.")
		if grace := d.cfg.OTP.DoneGracePeriod; grace > 0 {
			time.Sleep(grace)
		}
	}
}

func (d *consoleDelivery) ask(prompt string) string {
	fmt.Fprint(d.out, prompt)
	line, err := d.readLine()
	if err != nil {
		return ""
	}

	return line
}

func (d *consoleDelivery) readLine() (string, error) {
	line, err := d.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

// printError renders the user-facing message of an error, with the offending
// field when one is attributed.
func (d *consoleDelivery) printError(err error) {
	var fieldErr *domainerrors.FieldError
	if errors.As(err, &fieldErr) {
		fmt.Fprintf(d.out, "Error (%s): %s\n", fieldErr.Field, messageOf(fieldErr.Err))

		return
	}

	fmt.Fprintf(d.out, "Error: %s\n", messageOf(err))
}

func messageOf(err error) string {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message()
	}

	return err.Error()
}

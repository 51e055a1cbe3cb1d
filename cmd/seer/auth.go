package main

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/seer/internal/api"
	"github.com/five82/seer/internal/tokens"
)

// envPassword lets scripts log in without a prompt.
const envPassword = "SEER_PASSWORD"

func (c *cli) loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store tokens",
		Long: `Sign in with username and password. The password is read from
$SEER_PASSWORD or prompted for when --password is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			user, err := c.valueOrAsk(username, "Username", false)
			if err != nil {
				return err
			}
			if password == "" {
				password = os.Getenv(envPassword)
			}
			pass, err := c.valueOrAsk(password, "Password", true)
			if err != nil {
				return err
			}

			client, err := c.api(ctx)
			if err != nil {
				return err
			}
			session, err := client.Login(ctx, user, pass)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			c.printf("%s Logged in as %s\n", okStyle.Render("✓"), session.User.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVar(&password, "password", "", "account password (prefer the prompt)")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var reg api.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var err error
			if reg.Username, err = c.valueOrAsk(reg.Username, "Username", false); err != nil {
				return err
			}
			if reg.Email, err = c.valueOrAsk(reg.Email, "Email", false); err != nil {
				return err
			}
			if reg.Password == "" {
				reg.Password = os.Getenv(envPassword)
			}
			if reg.Password == "" {
				if reg.Password, err = c.valueOrAsk("", "Password", true); err != nil {
					return err
				}
				if reg.Password2, err = c.valueOrAsk("", "Confirm password", true); err != nil {
					return err
				}
			}

			client, err := c.api(ctx)
			if err != nil {
				return err
			}
			session, err := client.Register(ctx, reg)
			if err != nil {
				printFieldErrors(c, err)
				return fmt.Errorf("register: %w", err)
			}
			msg := session.Message
			if msg == "" {
				msg = "Account created"
			}
			c.printf("%s %s, signed in as %s\n", okStyle.Render("✓"), msg, session.User.DisplayName())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&reg.Username, "username", "u", "", "account username")
	f.StringVar(&reg.Email, "email", "", "email address")
	f.StringVar(&reg.Password, "password", "", "password (prefer the prompt)")
	f.StringVar(&reg.FirstName, "first-name", "", "first name")
	f.StringVar(&reg.LastName, "last-name", "", "last name")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.api(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			c.printf("Logged out\n")
			return nil
		},
	}
}

func (c *cli) authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Inspect and manage the stored session",
	}
	cmd.AddCommand(c.authStatusCmd(), c.authPasswordCmd())
	return cmd
}

func (c *cli) authStatusCmd() *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show who is signed in and when the access token expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := c.api(ctx)
			if err != nil {
				return err
			}
			pair, err := client.TokenStore().Tokens(ctx)
			if err != nil {
				return fmt.Errorf("read tokens: %w", err)
			}
			if pair.IsZero() {
				c.printf("%s Not logged in. Run `seer login`.\n", warnStyle.Render("!"))
				return nil
			}

			fields := [][2]string{
				{"Backend", client.BaseURL()},
				{"Token store", c.cfg.TokenStore},
			}
			if claims, ok := tokens.Inspect(pair.Access); ok {
				fields = append(fields, [2]string{"User id", claims.UserID})
				if !claims.ExpiresAt.IsZero() {
					fields = append(fields, [2]string{"Access expires", expiryLabel(claims.ExpiresAt, time.Now())})
				}
			}
			fields = append(fields, [2]string{"Refresh token", tokens.Redact(pair.Refresh)})

			if !offline {
				user, err := client.Me(ctx)
				switch {
				case err == nil:
					fields = append(fields, [2]string{"Signed in as", okStyle.Render(user.DisplayName())})
				case errors.Is(err, api.ErrReauthRequired):
					fields = append(fields, [2]string{"Session", errStyle.Render("expired, run `seer login`")})
				default:
					fields = append(fields, [2]string{"Session", warnStyle.Render("unverified: " + api.Message(err))})
				}
			}
			renderFields(c.out, fields)
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "only inspect local tokens")
	return cmd
}

func (c *cli) authPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change the account password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			current, err := c.valueOrAsk("", "Current password", true)
			if err != nil {
				return err
			}
			next, err := c.valueOrAsk("", "New password", true)
			if err != nil {
				return err
			}
			client, err := c.api(ctx)
			if err != nil {
				return err
			}
			if err := client.ChangePassword(ctx, current, next); err != nil {
				printFieldErrors(c, err)
				return fmt.Errorf("change password: %w", err)
			}
			c.printf("%s Password changed\n", okStyle.Render("✓"))
			return nil
		},
	}
}

func expiryLabel(at, now time.Time) string {
	local := at.Local().Format("2006-01-02 15:04:05")
	if !at.After(now) {
		return errStyle.Render(local + " (expired, refreshed on next call)")
	}
	return fmt.Sprintf("%s (in %s)", local, formatDuration(at.Sub(now)))
}

// printFieldErrors lists validation errors one field per line.
func printFieldErrors(c *cli, err error) {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || len(apiErr.Fields) <= 1 {
		return
	}
	for _, field := range slices.Sorted(maps.Keys(apiErr.Fields)) {
		for _, msg := range apiErr.Fields[field] {
			fmt.Fprintf(c.errOut, "  %s %s: %s\n", errStyle.Render("✗"), field, msg)
		}
	}
}

package main

import (
	"errors"
	"fmt"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/supabase-go/v1/auth"
)

var (
	emailFlag      string
	passwordFlag   string
	phoneFlag      string
	redirectFlag   string
	providerFlag   string
	scopesFlag     string
	hideQRCodeFlag bool
)

func credentialFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&emailFlag, "email", "", "account email")
	cmd.Flags().StringVar(&passwordFlag, "password", "", "account password")
}

func signUpCommand() *cobra.Command {
	cmd := cobra.Command{
		Use:   "signup",
		Short: "Create an account with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			resp, err := client.Auth().SignUp(ctx, auth.Credentials{
				Email:           emailFlag,
				Password:        passwordFlag,
				EmailRedirectTo: redirectFlag,
			})
			if err != nil {
				return err
			}
			if resp.Session == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Check %s for a confirmation link.\n", emailFlag)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed up and signed in as %s.\n", resp.User.Email)
			return nil
		},
	}
	credentialFlags(&cmd)
	cmd.Flags().StringVar(&redirectFlag, "redirect-to", "", "where the confirmation link sends the user")
	return &cmd
}

func signInCommand() *cobra.Command {
	cmd := cobra.Command{
		Use:   "signin",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			session, err := client.Auth().SignInWithPassword(ctx, auth.Credentials{
				Email:    emailFlag,
				Password: passwordFlag,
			})
			if err != nil {
				var authErr *auth.Error
				if errors.As(err, &authErr) {
					return fmt.Errorf("sign-in rejected (%d %s): %s", authErr.Status, authErr.Code, authErr.Message)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", session.User.Email)
			return nil
		},
	}
	credentialFlags(&cmd)
	return &cmd
}

func signOutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			if _, err := client.Auth().GetSession(ctx); err != nil && !auth.IsNoSession(err) {
				return err
			}
			if err := client.Auth().SignOut(ctx); err != nil {
				errf(cmd.ErrOrStderr(), "Server sign-out failed, local session removed anyway: %s", err)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func whoAmICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			session, err := client.Auth().GetSession(ctx)
			if err != nil {
				return err
			}
			if session == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
				return nil
			}
			user, err := client.Auth().GetUser(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
}

func otpCommand() *cobra.Command {
	cmd := cobra.Command{
		Use:   "otp",
		Short: "Send a magic link or one-time code",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			_, err = client.Auth().SignInWithOtp(ctx, auth.OtpCredentials{
				Email:   emailFlag,
				Phone:   phoneFlag,
				Options: auth.OtpOptions{EmailRedirectTo: redirectFlag},
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Check your inbox.")
			return nil
		},
	}
	cmd.Flags().StringVar(&emailFlag, "email", "", "send a magic link to this address")
	cmd.Flags().StringVar(&phoneFlag, "phone", "", "send a code to this phone number")
	cmd.Flags().StringVar(&redirectFlag, "redirect-to", "", "where the magic link sends the user")
	return &cmd
}

func oauthCommand() *cobra.Command {
	cmd := cobra.Command{
		Use:   "oauth",
		Short: "Print the provider sign-in URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			resp, err := client.Auth().SignInWithOAuth(ctx, auth.OAuthCredentials{
				Provider: auth.Provider(providerFlag),
				Options: auth.OAuthOptions{
					RedirectTo: redirectFlag,
					Scopes:     scopesFlag,
				},
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Open this URL to continue with %s:\n%s\n", resp.Provider, resp.URL)
			if !hideQRCodeFlag {
				qrterminal.GenerateHalfBlock(resp.URL, qrterminal.L, out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&providerFlag, "provider", string(auth.ProviderGitHub), "OAuth provider")
	cmd.Flags().StringVar(&redirectFlag, "redirect-to", "", "where the provider sends the user back")
	cmd.Flags().StringVar(&scopesFlag, "scopes", "", "space separated provider scopes")
	cmd.Flags().BoolVar(&hideQRCodeFlag, "hide-qr", false, "do not render the URL as a QR code")
	return &cmd
}

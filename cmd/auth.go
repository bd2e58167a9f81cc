package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcus/tdash/internal/api"
	"github.com/marcus/tdash/internal/auth"
	"github.com/marcus/tdash/internal/output"
	"github.com/marcus/tdash/internal/syncconfig"
)

var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Manage remote store authentication",
	GroupID: "system",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a bearer token for the remote store",
	Long: `Store a token minted by the server ("tdash auth token" on the server host).
While signed in, every write goes to the remote store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		user, _ := cmd.Flags().GetString("user")
		server, _ := cmd.Flags().GetString("server")
		if token == "" || user == "" {
			return errors.New("--token and --user are required")
		}
		if server == "" {
			server = syncconfig.GetServerURL()
		}

		creds := &syncconfig.AuthCredentials{
			Token:     token,
			UserID:    user,
			ServerURL: server,
		}
		if err := syncconfig.SaveAuth(creds); err != nil {
			output.Error("save credentials: %v", err)
			return err
		}
		output.Success("Logged in as %s (%s)", user, server)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := syncconfig.ClearAuth(); err != nil {
			output.Error("logout: %v", err)
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := syncconfig.LoadAuth()
		if err != nil {
			output.Error("load auth: %v", err)
			return err
		}

		if creds == nil || creds.Token == "" {
			fmt.Println("Not logged in. Tasks are stored on this device.")
			return nil
		}

		tokenPrefix := creds.Token
		if len(tokenPrefix) > 12 {
			tokenPrefix = tokenPrefix[:12] + "..."
		}

		fmt.Printf("User:   %s\n", creds.UserID)
		fmt.Printf("Server: %s\n", syncconfig.GetServerURL())
		fmt.Printf("Token:  %s\n", tokenPrefix)
		if creds.ExpiresAt != "" {
			fmt.Printf("Expires: %s\n", creds.ExpiresAt)
		}
		return nil
	},
}

var authTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a token with the server's JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		save, _ := cmd.Flags().GetBool("save")
		if user == "" {
			return errors.New("--user is required")
		}

		cfg := api.LoadConfig()
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is not set")
		}
		issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry)
		token, err := issuer.GenerateToken(user)
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}

		if !save {
			fmt.Println(token)
			return nil
		}
		creds := &syncconfig.AuthCredentials{Token: token, UserID: user}
		if exp := issuer.ExpiresAt(); !exp.IsZero() {
			creds.ExpiresAt = exp.UTC().Format(time.RFC3339)
		}
		if err := syncconfig.SaveAuth(creds); err != nil {
			return err
		}
		output.Success("Logged in as %s", user)
		return nil
	},
}

func init() {
	authLoginCmd.Flags().String("token", "", "Bearer token")
	authLoginCmd.Flags().String("user", "", "User id the token was minted for")
	authLoginCmd.Flags().String("server", "", "Server URL (default from config)")
	authTokenCmd.Flags().String("user", "", "User id to mint the token for")
	authTokenCmd.Flags().Bool("save", false, "Store the token as this device's credentials")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authTokenCmd)
	rootCmd.AddCommand(authCmd)
}

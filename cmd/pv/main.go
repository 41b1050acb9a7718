package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/playvault/playvault/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	serverURL string
	cfgFile   string
	tokenFlag string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pv",
	Short: "PlayVault CLI",
	Long: `pv is the command-line interface for PlayVault.

It lets you register an account, log in, and inspect the recently
played games stored for your profile.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".pv"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server_url")
		}
		if serverURL == "" {
			serverURL = "http://localhost:8080"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.pv/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "PlayVault server URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "session token (default: saved by login)")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(meCmd)
	rootCmd.AddCommand(gamesCmd)
	rootCmd.AddCommand(versionCmd)
}

// newClient builds an SDK client carrying the saved session token.
func newClient() *client.Client {
	tok := tokenFlag
	if tok == "" {
		tok = loadToken()
	}
	opts := []client.Option{}
	if tok != "" {
		opts = append(opts, client.WithBearerToken(tok))
	}
	return client.New(serverURL, opts...)
}

func tokenPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".pv", "token")
}

func loadToken() string {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return ""
	}
	return string(b)
}

func saveToken(tok string) {
	p := tokenPath()
	_ = os.MkdirAll(filepath.Dir(p), 0o700)
	if err := os.WriteFile(p, []byte(tok), 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot save token: %v\n", err)
	}
}

// ── register ─────────────────────────────────────────────────────────────────

var (
	regUsername string
	regEmail    string
	regBirthday string
	regPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a PlayVault account",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		u, err := c.Register(context.Background(), client.RegisterRequest{
			Username: regUsername,
			Email:    regEmail,
			Birthday: regBirthday,
			Password: regPassword,
		})
		if err != nil {
			return err
		}
		saveToken(u.Token)
		fmt.Printf("registered %s (%s)\n", u.Username, u.ID)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&regUsername, "username", "", "display name")
	registerCmd.Flags().StringVar(&regEmail, "email", "", "email address")
	registerCmd.Flags().StringVar(&regBirthday, "birthday", "", "birthday (YYYY-MM-DD)")
	registerCmd.Flags().StringVar(&regPassword, "password", "", "password")
	_ = registerCmd.MarkFlagRequired("username")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("birthday")
	_ = registerCmd.MarkFlagRequired("password")
}

// ── login / logout ───────────────────────────────────────────────────────────

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		u, err := c.Login(context.Background(), loginEmail, loginPassword)
		if err != nil {
			return err
		}
		saveToken(u.Token)
		fmt.Printf("logged in as %s\n", u.Username)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "email address")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Destroy the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		if err := c.Logout(context.Background()); err != nil {
			return err
		}
		_ = os.Remove(tokenPath())
		fmt.Println("logged out")
		return nil
	},
}

// ── me ───────────────────────────────────────────────────────────────────────

var meFormat string

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the current account",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		u, err := c.Me(context.Background())
		if err != nil {
			return err
		}
		if meFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(u)
		}
		fmt.Printf("ID:       %s\n", u.ID)
		fmt.Printf("Username: %s\n", u.Username)
		if u.Email != nil {
			fmt.Printf("Email:    %s\n", *u.Email)
		}
		if u.SteamID != nil {
			fmt.Printf("Steam ID: %s\n", *u.SteamID)
		}
		if u.CurrentGame != nil {
			fmt.Printf("Playing:  %s\n", *u.CurrentGame)
		}
		return nil
	},
}

func init() {
	meCmd.Flags().StringVar(&meFormat, "format", "text", "Output format: text or json")
}

// ── games ────────────────────────────────────────────────────────────────────

var (
	gamesRefresh bool
	gamesFormat  string
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List stored games, optionally refreshing from Steam first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx := context.Background()

		var (
			list []client.Game
			err  error
		)
		if gamesRefresh {
			list, err = c.RefreshGames(ctx)
		} else {
			list, err = c.Games(ctx)
		}
		if err != nil {
			return err
		}

		if gamesFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "APPID\tNAME\tPLAYTIME (MIN)")
		for _, g := range list {
			fmt.Fprintf(w, "%d\t%s\t%d\n", g.AppID, g.Name, g.PlaytimeForever)
		}
		return w.Flush()
	},
}

func init() {
	gamesCmd.Flags().BoolVar(&gamesRefresh, "refresh", false, "pull fresh data from Steam before listing")
	gamesCmd.Flags().StringVar(&gamesFormat, "format", "text", "Output format: text or json")
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("pv", version)
	},
}

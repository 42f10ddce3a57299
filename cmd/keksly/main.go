package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"keksly-go/internal/app"
	"keksly-go/internal/config"
	"keksly-go/internal/encryption"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	// A missing .env is fine; anything else in it is a user error worth seeing.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readConfig loads the config file named by the defaults.
func readConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// newApp reads the config and boots a KekslyApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Accept", "Status").
func newApp(cmd *cobra.Command, operation string, opts app.Options) (*app.KekslyApp, error) {
	cfg, _, err := readConfig()
	if err != nil {
		return nil, err
	}

	if cfg.Storage.Encrypted && cfg.Encryption.Type != "test" {
		if opts.Passphrase, err = readPassphrase("Passphrase: "); err != nil {
			return nil, err
		}
	}
	opts.Verbose, _ = cmd.Flags().GetBool("verbose")
	if opts.HTMLPath == "" {
		opts.HTMLPath, _ = cmd.Flags().GetString("page")
	}
	opts.Out = cmd.OutOrStdout()

	a, err := app.NewKekslyApp(cmd.Context(), cfg, operation, opts)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// readPassphrase takes KEKSLY_PASSPHRASE when set, else prompts on the terminal.
func readPassphrase(prompt string) (string, error) {
	if p := os.Getenv("KEKSLY_PASSPHRASE"); p != "" {
		return p, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no passphrase: set KEKSLY_PASSPHRASE or run in a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

var rootCmd = &cobra.Command{
	Use:          "keksly",
	Short:        "Cookie consent manager",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init ORIGIN",
	Short: "Initialize configuration for a site origin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(args[0], defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Origin:   %s\n", cfg.Origin)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := readConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Origin:    %s\n", cfg.Origin)
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("DNT:       %t\n", cfg.DoNotTrack)
		fmt.Printf("Storage:   %s (encrypted: %t)\n", cfg.Storage.Type, cfg.Storage.Encrypted)
		if cfg.Source.URL != "" {
			fmt.Printf("Source:    %s (timeout %s)\n", cfg.Source.URL, cfg.Source.FetchTimeout())
		}
		if cfg.Source.File != "" {
			fmt.Printf("Source:    %s\n", cfg.Source.File)
		}
		fmt.Printf("Serve:     %s\n", cfg.Server.Addr)
		return nil
	},
}

// keygen command
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Create the age key pair for encrypted storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := readConfig()
		if err != nil {
			return err
		}

		keys := encryption.NewAgeKeyPair(cfg.Encryption)
		if keys.IsConfigured() {
			return fmt.Errorf("key pair already exists at %s", cfg.Encryption.PrivateKeyPath)
		}

		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		if pass == "" {
			return errors.New("passphrase must not be empty")
		}
		if err := keys.Setup(pass); err != nil {
			return fmt.Errorf("creating key pair: %w", err)
		}

		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current consent state",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Not quiet: a first visit prints the banner before the state.
		a, err := newApp(cmd, "Status", app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		st := a.GetStatus()
		uid := st.UID
		if uid == "" {
			uid = "-"
		}
		if st.ShowBanner {
			fmt.Println()
		}
		fmt.Printf("Origin: %s\n", st.Origin)
		fmt.Printf("UID:    %s\n", uid)
		fmt.Printf("Phase:  %s\n\n", st.Phase)
		for _, s := range st.Services {
			mark := "denied "
			if s.Granted {
				mark = "granted"
			}
			required := ""
			if s.Required {
				required = "  (required)"
			}
			fmt.Printf("%s  %-16s %s%s\n", mark, s.ID, s.Name, required)
		}
		return nil
	},
}

// accept command
var acceptCmd = &cobra.Command{
	Use:   "accept",
	Short: "Grant every service",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Accept", app.Options{Quiet: true})
		if err != nil {
			return err
		}
		defer a.Close()

		a.AcceptAll()
		fmt.Println("All services granted.")
		return nil
	},
}

// reject command
var rejectCmd = &cobra.Command{
	Use:   "reject",
	Short: "Deny every non-required service",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Reject", app.Options{Quiet: true})
		if err != nil {
			return err
		}
		defer a.Close()

		a.RejectAll()
		fmt.Println("Only required services granted.")
		return nil
	},
}

// set command
var setCmd = &cobra.Command{
	Use:   "set ID=BOOL...",
	Short: "Save custom choices per service",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "SaveCustom", app.Options{Quiet: true})
		if err != nil {
			return err
		}
		defer a.Close()

		state, err := a.SetChoices(args)
		if err != nil {
			a.Fail()
			return err
		}
		for _, srv := range a.Widget().Config().Services {
			fmt.Printf("%s=%t\n", srv.ID, state[srv.ID])
		}
		return nil
	},
}

// settings command
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show services, choices and decision history",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "OpenSettings", app.Options{Quiet: true})
		if err != nil {
			return err
		}
		defer a.Close()

		a.OpenSettings()
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View consent decisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "GetHistory", app.Options{Quiet: true})
		if err != nil {
			return err
		}
		defer a.Close()

		entries := a.GetHistory(limit)
		if len(entries) == 0 {
			fmt.Println(a.Widget().Config().Texts.Settings.HistoryEmpty)
			return nil
		}
		a.WriteHistory(cmd.OutOrStdout(), entries)
		return nil
	},
}

// uid command
var uidCmd = &cobra.Command{
	Use:   "uid",
	Short: "Print the visitor identifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "UID", app.Options{Quiet: true})
		if err != nil {
			return err
		}
		defer a.Close()

		if a.UID() == "" {
			return errors.New("no identifier in use (Do-Not-Track)")
		}
		fmt.Println(a.UID())
		return nil
	},
}

// reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase the stored decision, history and identifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Reset", app.Options{Quiet: true})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Reset(cmd.Context()); err != nil {
			a.Fail()
			return fmt.Errorf("reset failed: %w", err)
		}
		fmt.Println("Consent reset.")
		return nil
	},
}

// apply command
var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Activate granted scripts in a page and inject the data layer",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")

		a, err := newApp(cmd, "Apply", app.Options{Quiet: true, HTMLPath: input})
		if err != nil {
			return err
		}
		defer a.Close()

		if output == "" || output == "-" {
			return a.RenderPage(cmd.OutOrStdout())
		}
		f, err := os.Create(output)
		if err != nil {
			a.Fail()
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		if err := a.RenderPage(f); err != nil {
			a.Fail()
			return err
		}
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve config, consent state and metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(cmd, "Serve", app.Options{Quiet: true})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.Fail()
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Mirror log output to stderr")
	rootCmd.PersistentFlags().String("page", "", "HTML page to read inline config and gated scripts from")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(acceptCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 0, "Maximum number of entries to show (0 for all)")
	rootCmd.AddCommand(uidCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringP("input", "i", "", "Page to apply consent to")
	applyCmd.Flags().StringP("output", "o", "-", "Where to write the page")
	rootCmd.AddCommand(serveCmd)
}

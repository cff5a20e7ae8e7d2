package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/filippocastelli/go-omada/cmd/enableradios"
	"github.com/filippocastelli/go-omada/cmd/inventory"
	"github.com/filippocastelli/go-omada/pkg/config"
	"github.com/filippocastelli/go-omada/pkg/logging"
	"github.com/filippocastelli/go-omada/pkg/omada"
)

// app carries the state shared by the root command and its subcommands.
type app struct {
	configPath string
	verbose    bool
	site       string
	baseURL    string
	logFile    string
	timeout    time.Duration

	cfg         *config.Config
	logging     *logging.Logging
	credentials config.CredentialProvider
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "omadactl [command]",
		Short:         "Omada controller command line client",
		Long:          `Switches access point radios and LEDs and dumps the inventory of an Omada network controller`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to enable-radios when no command is specified
			return a.runEnableRadios(cmd, args)
		},
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logging != nil {
				return a.logging.Close()
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath, "Path to the YAML config file (missing file: defaults and environment)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&a.site, "site", "s", "", "Site key (env: OMADA_SITE, default: Default)")
	rootCmd.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "Controller base URL (env: OMADA_BASEURL)")
	rootCmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "Also write logs to this file, rotated by size")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "Per-request timeout, 0 waits indefinitely")

	enableRadiosCmd := &cobra.Command{
		Use:   "enable-radios",
		Short: "Enable or disable the radio and LED of every access point of a site",
		RunE:  a.runEnableRadios,
	}
	addEnableRadiosFlags(rootCmd)
	addEnableRadiosFlags(enableRadiosCmd)

	inventoryCmd := &cobra.Command{
		Use:   "inventory",
		Short: "Dump admins, sites, scenarios, site settings and devices",
		RunE:  a.runInventory,
	}
	inventoryCmd.Flags().StringP("output", "o", "text", "Output format: text, json")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Log in and report whether the controller accepts the session",
		RunE:  a.runStatus,
	}

	rootCmd.AddCommand(enableRadiosCmd, inventoryCmd, statusCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	return rootCmd
}

func addEnableRadiosFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("disable", "d", false, "Disable radios and turn LEDs off")
	cmd.Flags().Bool("no-leds", false, "Leave LEDs untouched")
	cmd.Flags().String("band", string(omada.Band2G), "Radio band: 2.4GHz or 5GHz")
	cmd.Flags().Bool("continue-on-error", false, "Keep going after a failed device and report all failures at the end")
}

// setup loads the configuration (file, .env, environment, then flags) and the loggers.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	a.logging = logging.Setup(logging.Options{
		Verbose: a.verbose,
		LogFile: a.logFile,
		Out:     cmd.ErrOrStderr(),
	})

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	// Override with CLI flags if they were explicitly set
	if cmd.Flags().Changed("site") {
		cfg.Site = a.site
	}
	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL = a.baseURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.credentials = cfg.CredentialProvider()
	a.logging.Logger.V(1).Info("Configuration loaded", "path", cfg.Path, "baseurl", cfg.BaseURL, "site", cfg.Site, "verify", cfg.Verify)
	return nil
}

func (a *app) clientConfig() *omada.ClientConfig {
	return &omada.ClientConfig{
		URL:       a.cfg.BaseURL,
		Site:      a.cfg.Site,
		VerifySSL: a.cfg.Verify,
		Timeout:   a.timeout,
		Logger:    a.logging.Client,
	}
}

func (a *app) newClient() (*omada.Client, error) {
	return omada.NewClient(a.clientConfig())
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := logr.NewContext(cmd.Context(), a.logging.Logger)
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

func (a *app) runEnableRadios(cmd *cobra.Command, args []string) error {
	bandFlag, _ := cmd.Flags().GetString("band")
	band, err := omada.ParseBand(bandFlag)
	if err != nil {
		return err
	}
	runCfg := enableradios.Config{Site: a.cfg.Site, Band: band}
	runCfg.Disable, _ = cmd.Flags().GetBool("disable")
	runCfg.NoLEDs, _ = cmd.Flags().GetBool("no-leds")
	runCfg.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")

	client, err := a.newClient()
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cmd)
	defer cancel()

	_, err = enableradios.Run(ctx, client, a.credentials, runCfg)
	return err
}

func (a *app) runInventory(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	client, err := a.newClient()
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cmd)
	defer cancel()

	return inventory.Run(ctx, client, a.credentials, inventory.Config{Site: a.cfg.Site, Output: output}, cmd.OutOrStdout())
}

func (a *app) runStatus(cmd *cobra.Command, args []string) error {
	client, err := a.newClient()
	if err != nil {
		return err
	}
	ctx, cancel := a.context(cmd)
	defer cancel()

	ok, err := inventory.Status(ctx, client, a.credentials, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("controller at %s does not accept the session", a.cfg.BaseURL)
	}
	return nil
}

// Execute runs the root command with the process arguments.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/perpdesk/perpdesk/internal/adapters/progress"
	"github.com/perpdesk/perpdesk/internal/app"
	"github.com/perpdesk/perpdesk/internal/config"
	"github.com/perpdesk/perpdesk/internal/usecase"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"

	// noTimeoutAnnotation marks commands that wait on the user for as long
	// as it takes
	noTimeoutAnnotation = "perpdesk/no-timeout"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "perpdesk",
		Short: "Sign and track perpetual trading actions",
		Long: `perpdesk signs the transactions of backend-issued trading actions with
your wallet (browser bridge, Ledger or a local key), submits them and waits
for the chain to settle each one before moving to the next.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot, cmd)

			appInstance, err := app.InitApp(v, newProgressSink(cmd))
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			// Store app in context
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			// Add timeout if configured
			if appInstance.Config.Timeout > 0 && cmd.Annotations[noTimeoutAnnotation] == "" {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				// Store cancel func to be called on command completion
				cmd.PostRun = func(cmd *cobra.Command, args []string) {
					cancel()
				}
			}

			cmd.SetContext(ctx)

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a, err := getApp(cmd); err == nil {
				return a.Close()
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().String("signer", "", "Wallet to sign with (browser, hardware, local)")
	rootCmd.PersistentFlags().String("account", "", "Account to act as (defaults to the saved or current account)")
	rootCmd.PersistentFlags().String("api-url", "", "Backend API base URL")

	// Add command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	signCmd := NewSignCmd()
	signCmd.GroupID = "main"
	rootCmd.AddCommand(signCmd)

	actionCmd := NewActionCmd()
	actionCmd.GroupID = "main"
	rootCmd.AddCommand(actionCmd)

	accountsCmd := NewAccountsCmd()
	accountsCmd.GroupID = "management"
	rootCmd.AddCommand(accountsCmd)

	configCmd := NewConfigCmd()
	configCmd.GroupID = "management"
	rootCmd.AddCommand(configCmd)

	// Version command
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// newProgressSink shows a spinner on interactive terminals
func newProgressSink(cmd *cobra.Command) usecase.ProgressSink {
	nonInteractive, _ := cmd.Flags().GetBool("non-interactive")
	if nonInteractive || !isTerminal(os.Stderr) {
		return progress.NewNopSink()
	}
	return progress.NewSpinnerProgressReporter()
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}

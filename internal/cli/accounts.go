package cli

import (
	"github.com/perpdesk/perpdesk/internal/cli/render"
	"github.com/perpdesk/perpdesk/internal/usecase"
	"github.com/spf13/cobra"
)

// NewAccountsCmd creates the accounts command
func NewAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "List and switch wallet accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listAccounts(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the accounts exposed by the connected wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listAccounts(cmd)
		},
	})
	cmd.AddCommand(newAccountsSwitchCmd())

	return cmd
}

func newAccountsSwitchCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "switch [address]",
		Short: "Switch the wallet's current account",
		Long: `Switch the wallet's current account.

Without an address, prompts for one of the wallet's accounts.
With --save, the account also becomes the default for later commands.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.SwitchAccountParams{Save: save}
			if len(args) == 1 {
				params.Account = args[0]
			}

			result, err := app.ManageAccounts.Switch(cmd.Context(), params)
			if err != nil {
				return err
			}

			return render.NewAccountsRenderer(cmd.OutOrStdout()).RenderSwitch(result)
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Save the account as the default")

	return cmd
}

func listAccounts(cmd *cobra.Command) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}

	result, err := app.ManageAccounts.List(cmd.Context())
	if err != nil {
		return err
	}

	return render.NewAccountsRenderer(cmd.OutOrStdout()).RenderList(result)
}

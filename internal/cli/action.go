package cli

import (
	"fmt"

	"github.com/perpdesk/perpdesk/internal/cli/render"
	"github.com/perpdesk/perpdesk/internal/usecase"
	"github.com/spf13/cobra"
)

// NewActionCmd creates the action command
func NewActionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Inspect and create trading actions",
		Long: `Inspect and create trading actions.

An action is an ordered group of transactions prepared by the backend for
one trading intent (open, close, fund, ...). Create one with
'perpdesk action create', then sign it with 'perpdesk sign <id>'.`,
	}

	cmd.AddCommand(newActionShowCmd())
	cmd.AddCommand(newActionCreateCmd())

	return cmd
}

func newActionShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <action-id>",
		Short: "Show an action and the status of its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ShowAction.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			switch output {
			case render.FormatTable, "":
				return render.NewActionRenderer(cmd.OutOrStdout()).RenderAction(result)
			case render.FormatJSON, render.FormatYAML:
				return render.Structured(cmd.OutOrStdout(), output, result.Action)
			default:
				return fmt.Errorf("unknown output format %q (expected table, json or yaml)", output)
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", render.FormatTable, "Output format (table, json, yaml)")

	return cmd
}

func newActionCreateCmd() *cobra.Command {
	var params usecase.CreateActionParams

	cmd := &cobra.Command{
		Use:   "create <kind>",
		Short: "Ask the backend to prepare a new action",
		Long: `Ask the backend to prepare a new action for the given intent.

Kinds: open, close, fund, withdraw, take-profit, stop-loss, cancel

Examples:
  perpdesk action create open --market ETH-USD --side long --amount 100 --leverage 5
  perpdesk action create close --position pos-42
  perpdesk action create take-profit --position pos-42 --price 4200
  perpdesk action create fund --amount 250`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params.Kind = args[0]
			action, err := app.CreateAction.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			return render.NewActionRenderer(cmd.OutOrStdout()).RenderCreated(action)
		},
	}

	cmd.Flags().StringVar(&params.ProviderID, "provider", "", "Trading provider (defaults to the configured provider)")
	cmd.Flags().StringVar(&params.Address, "address", "", "Trader address (defaults to the configured account)")
	cmd.Flags().StringVar(&params.Market, "market", "", "Market symbol, e.g. ETH-USD")
	cmd.Flags().StringVar(&params.Side, "side", "", "Position side (long, short)")
	cmd.Flags().StringVar(&params.Amount, "amount", "", "Collateral or transfer amount")
	cmd.Flags().StringVar(&params.Leverage, "leverage", "", "Leverage multiplier")
	cmd.Flags().StringVar(&params.Price, "price", "", "Trigger price for take-profit and stop-loss")
	cmd.Flags().StringVar(&params.PositionID, "position", "", "Position id for close, take-profit and stop-loss")
	cmd.Flags().StringVar(&params.OrderID, "order", "", "Order id to cancel")

	return cmd
}

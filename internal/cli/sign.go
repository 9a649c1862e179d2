package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/fatih/color"
	"github.com/perpdesk/perpdesk/internal/adapters/progress"
	"github.com/perpdesk/perpdesk/internal/adapters/relay"
	"github.com/perpdesk/perpdesk/internal/app"
	"github.com/perpdesk/perpdesk/internal/cli/render"
	"github.com/perpdesk/perpdesk/internal/domain"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/internal/usecase"
	"github.com/perpdesk/perpdesk/pkg/stream"
	"github.com/spf13/cobra"
)

type signOptions struct {
	actionFile string
	plain      bool
	serve      string
	json       bool
}

// NewSignCmd creates the sign command
func NewSignCmd() *cobra.Command {
	opts := &signOptions{}

	cmd := &cobra.Command{
		Use:   "sign [action-id]",
		Short: "Sign, submit and confirm the transactions of an action",
		Long: `Sign, submit and confirm the transactions of an action, one at a time.

Each transaction is signed by the wallet, submitted to the backend and
confirmed on chain before the next one starts. When a step fails the flow
halts on it and can be retried from the same step.

With --serve, the flow is also exposed over HTTP and websocket so another
client can follow it and trigger retries.

Examples:
  perpdesk sign act_123
  perpdesk sign --action-file action.yaml --signer local
  perpdesk sign act_123 --plain --serve 127.0.0.1:8547`,
		Args: cobra.MaximumNArgs(1),
		Annotations: map[string]string{
			noTimeoutAnnotation: "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.SignActionParams{ActionFile: opts.actionFile}
			if len(args) == 1 {
				params.ActionID = args[0]
			}

			return runSign(cmd, app, params, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.actionFile, "action-file", "f", "", "Sign an action loaded from a JSON or YAML file")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Print line-based progress instead of the interactive view")
	cmd.Flags().StringVar(&opts.serve, "serve", "", "Expose the flow over HTTP and websocket on this address")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the final flow state as JSON")

	return cmd
}

func runSign(cmd *cobra.Command, app *app.App, params usecase.SignActionParams, opts *signOptions) error {
	ctx := cmd.Context()

	prepared, err := app.SignAction.Prepare(ctx, params)
	if err != nil {
		return err
	}
	flow := prepared.Flow

	msub := flow.Subscribe()
	defer msub.Close()
	go app.Metrics.Observe(msub)

	if opts.serve != "" {
		srv := relay.NewServer(ctx, flow, app.Metrics.Handler(), app.Log)
		serveCtx, stopServe := context.WithCancel(ctx)
		defer stopServe()
		go func() {
			err := srv.Serve(serveCtx, opts.serve, func(addr net.Addr) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Serving flow %s on http://%s\n", flow.ID(), addr)
			})
			if err != nil {
				app.Log.Error("relay server stopped", "error", err)
			}
		}()
	}

	// subscribe before starting so the first emission is not missed
	sub := flow.Subscribe()
	defer sub.Close()

	if err := flow.Start(ctx); err != nil {
		return err
	}

	var state models.SignFlowState
	if useSignView(opts, app.Config.NonInteractive) {
		state, err = runSignView(ctx, flow, sub, prepared.Account)
	} else {
		state, err = runPlain(ctx, cmd, app, flow, sub, opts)
	}
	if err != nil {
		return err
	}

	return signOutcome(ctx, cmd.OutOrStdout(), flow, state, opts.json)
}

func useSignView(opts *signOptions, nonInteractive bool) bool {
	return !opts.plain && !opts.json && !nonInteractive && isTerminal(os.Stdout)
}

// runPlain follows the flow with line-based output, asking before each
// retry. While serving, a declined retry keeps waiting for one over the relay.
func runPlain(ctx context.Context, cmd *cobra.Command, app *app.App, flow *usecase.SignFlow, sub *stream.Subscription[models.SignFlowState], opts *signOptions) (models.SignFlowState, error) {
	out := cmd.OutOrStdout()
	if opts.json {
		out = cmd.ErrOrStderr()
	}
	reporter := progress.NewSignFlowReporter(out, !app.Config.NonInteractive && writesToTerminal(out))

	for {
		state, ok := reporter.Follow(ctx, sub)
		if !ok || state.IsDone {
			return state, nil
		}

		retry, err := app.Selector.ConfirmRetry(ctx, state.Error)
		if err != nil {
			return state, err
		}
		if !retry {
			if opts.serve == "" {
				return state, nil
			}
			fmt.Fprintln(out, color.New(color.Faint).Sprint("Waiting for a retry over the relay"))
			continue
		}

		if err := flow.Retry(ctx); err != nil && !errors.Is(err, domain.ErrFlowRunning) {
			return state, err
		}
	}
}

func signOutcome(ctx context.Context, out io.Writer, flow *usecase.SignFlow, state models.SignFlowState, asJSON bool) error {
	if err := flow.Err(); err != nil {
		return fmt.Errorf("signing aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if state.Halted() {
		tx, _ := state.Current()
		return fmt.Errorf("signing halted at %s of transaction %s: %w", state.Step, tx.ID, state.Error)
	}
	if !state.IsDone {
		return fmt.Errorf("signing did not complete")
	}

	if asJSON {
		return render.Structured(out, render.FormatJSON, state)
	}
	fmt.Fprintln(out, render.FormatSuccess(fmt.Sprintf("Signed %d transactions for action %s", len(state.Transactions), state.Action.ID)))
	return nil
}

func writesToTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

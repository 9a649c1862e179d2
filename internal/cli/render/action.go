package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/internal/usecase"
)

// ActionRenderer renders actions and their transactions
type ActionRenderer struct {
	out io.Writer
}

// NewActionRenderer creates a new action renderer
func NewActionRenderer(out io.Writer) *ActionRenderer {
	return &ActionRenderer{out: out}
}

// RenderAction prints an action header and its transaction table
func (r *ActionRenderer) RenderAction(result *usecase.ShowActionResult) error {
	a := result.Action

	fmt.Fprintf(r.out, "%s %s\n",
		color.New(color.FgCyan, color.Bold).Sprintf("%s action", Title(string(a.Kind))),
		color.New(color.Faint).Sprintf("(%s)", a.ID))
	if a.ProviderID != "" {
		fmt.Fprintf(r.out, "Provider: %s\n", a.ProviderID)
	}
	fmt.Fprintf(r.out, "Status:   %s\n\n", Title(string(a.Status)))

	if len(a.Transactions) == 0 {
		fmt.Fprintln(r.out, "No transactions")
		return nil
	}

	t := newTable(r.out)
	t.AppendHeader(table.Row{"#", "TRANSACTION", "TYPE", "NETWORK", "STATUS", "SIGNING"})
	for i, tx := range a.Transactions {
		signing := "-"
		if tx.HasPayload() {
			signing = string(tx.SigningFormat)
		}
		t.AppendRow(table.Row{
			i + 1,
			tx.ID,
			tx.Type,
			network(tx),
			StatusColor(tx.Status).Sprint(Title(string(tx.Status))),
			signing,
		})
	}
	t.Render()

	fmt.Fprintf(r.out, "\n%d settled, %d pending, %d rejected\n", result.Settled, result.Pending, result.Rejected)
	return nil
}

// RenderCreated confirms a newly created action
func (r *ActionRenderer) RenderCreated(action *models.Action) error {
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Created %s action %s with %d transaction(s)",
		Title(string(action.Kind)), action.ID, len(action.Transactions))))
	fmt.Fprintf(r.out, "Sign it with: perpdesk sign %s\n", action.ID)
	return nil
}

func network(tx models.Transaction) string {
	switch {
	case tx.Network != "" && tx.ChainID != 0:
		return fmt.Sprintf("%s (%d)", tx.Network, tx.ChainID)
	case tx.Network != "":
		return tx.Network
	case tx.ChainID != 0:
		return fmt.Sprint(tx.ChainID)
	}
	return "-"
}

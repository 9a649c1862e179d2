package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/perpdesk/perpdesk/internal/usecase"
)

// AccountsRenderer renders wallet accounts
type AccountsRenderer struct {
	out io.Writer
}

// NewAccountsRenderer creates a new accounts renderer
func NewAccountsRenderer(out io.Writer) *AccountsRenderer {
	return &AccountsRenderer{out: out}
}

// RenderList prints the wallet's accounts, marking the active one and the
// saved default
func (r *AccountsRenderer) RenderList(result *usecase.AccountsResult) error {
	if !result.State.Connected || len(result.State.Accounts) == 0 {
		fmt.Fprintln(r.out, FormatWarning("Wallet is not connected or exposes no accounts"))
		return nil
	}

	t := newTable(r.out)
	t.AppendHeader(table.Row{"", "ACCOUNT", ""})
	for _, account := range result.State.Accounts {
		marker := " "
		if account == result.State.CurrentAccount {
			marker = color.New(color.FgGreen).Sprint("●")
		}
		note := ""
		if account == result.Default {
			note = color.New(color.Faint).Sprint("default")
		}
		t.AppendRow(table.Row{marker, account.Hex(), note})
	}
	t.Render()
	return nil
}

// RenderSwitch confirms the active account
func (r *AccountsRenderer) RenderSwitch(result *usecase.AccountsResult) error {
	fmt.Fprintln(r.out, FormatSuccess("Active account: "+result.State.CurrentAccount.Hex()))
	if result.Saved {
		fmt.Fprintln(r.out, "📁 saved as default account")
	}
	return nil
}

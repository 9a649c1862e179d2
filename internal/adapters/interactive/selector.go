package interactive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/usecase"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
)

// SelectorAdapter handles interactive selection
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

// SelectAccount asks the user to pick one of the wallet's accounts
func (s *SelectorAdapter) SelectAccount(ctx context.Context, accounts []common.Address, current common.Address) (common.Address, error) {
	// In non-interactive mode, we can't select
	if s.config.NonInteractive {
		return common.Address{}, fmt.Errorf("interactive selection not available in non-interactive mode")
	}

	if len(accounts) == 0 {
		return common.Address{}, fmt.Errorf("no accounts provided for selection")
	}

	// If only one account, return it directly
	if len(accounts) == 1 {
		return accounts[0], nil
	}

	options := formatAccountOptions(accounts, current)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, type to search, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:     "Select signing account",
		Items:     options,
		Templates: templates,
		Size:      10,
		CursorPos: max(lo.IndexOf(accounts, current), 0),
		Searcher:  createFuzzySearchFunc(options),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return common.Address{}, fmt.Errorf("selection cancelled: %w", err)
	}

	return accounts[index], nil
}

// ConfirmRetry asks whether a halted signing flow should be retried
func (s *SelectorAdapter) ConfirmRetry(ctx context.Context, reason error) (bool, error) {
	if s.config.NonInteractive {
		return false, nil
	}

	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Retry (%s)", summarize(reason)),
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return true, nil
}

// formatAccountOptions creates display strings for account selection
func formatAccountOptions(accounts []common.Address, current common.Address) []string {
	return lo.Map(accounts, func(account common.Address, i int) string {
		option := fmt.Sprintf("%2d. %s", i+1, account.Hex())
		if account == current {
			option += " " + color.New(color.FgGreen).Sprint("(current)")
		}
		return option
	})
}

// summarize keeps the prompt on one line
func summarize(err error) string {
	if err == nil {
		return "no error"
	}
	msg := strings.SplitN(err.Error(), "\n", 2)[0]
	if len(msg) > 80 {
		msg = msg[:77] + "..."
	}
	return msg
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		// Empty search shows all items
		if input == "" {
			return true
		}

		// Convert to lowercase for case-insensitive search
		input = strings.ToLower(input)
		item := strings.ToLower(items[index])

		// First try simple substring match
		if strings.Contains(item, input) {
			return true
		}

		// Then try fuzzy match
		pattern := fuzzy.Find(input, []string{item})
		return len(pattern) > 0
	}
}

// Ensure the adapter implements the interface
var _ usecase.AccountSelector = (*SelectorAdapter)(nil)

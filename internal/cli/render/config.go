package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/perpdesk/perpdesk/internal/domain/config"
	"github.com/perpdesk/perpdesk/internal/usecase"
)

// ConfigRenderer renders config-related output
type ConfigRenderer struct {
	out io.Writer
}

// NewConfigRenderer creates a new config renderer
func NewConfigRenderer(out io.Writer) *ConfigRenderer {
	return &ConfigRenderer{
		out: out,
	}
}

// RenderConfig renders the configuration display
func (r *ConfigRenderer) RenderConfig(result *usecase.ShowConfigResult) error {
	fmt.Fprintln(r.out, "📋 Current config:")

	account := result.Config.Account
	if account == "" {
		account = "(not set)"
	}
	fmt.Fprintf(r.out, "Account:   %s%s\n", account, r.override(result, config.ConfigKeyAccount))
	fmt.Fprintf(r.out, "Signer:    %s%s\n", result.Config.Signer, r.override(result, config.ConfigKeySigner))

	if rt := result.Runtime; rt != nil {
		api := rt.API.URL
		if api == "" {
			api = "(not set)"
		}
		fmt.Fprintf(r.out, "API:       %s\n", api)
		if rt.API.Provider != "" {
			fmt.Fprintf(r.out, "Provider:  %s\n", rt.API.Provider)
		}
		fmt.Fprintf(r.out, "Polling:   %d attempts every %s\n", rt.Poll.Attempts, rt.Poll.Interval)

		ids := make([]uint64, 0, len(rt.Chains))
		for id := range rt.Chains {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			fmt.Fprintf(r.out, "Chain %d:  %s\n", id, rt.Chains[id].Name)
		}

		fmt.Fprintf(r.out, "\n📦 Config source: %s\n", rt.ConfigSource)
	}

	if result.Exists {
		fmt.Fprintf(r.out, "📁 config file: %s\n", relativePath(result.ConfigPath))
	} else {
		fmt.Fprintf(r.out, "📁 config file: %s (not created yet)\n", relativePath(result.ConfigPath))
	}
	return nil
}

// RenderSet renders the result of setting a configuration value
func (r *ConfigRenderer) RenderSet(result *usecase.SetConfigResult) error {
	fmt.Fprintf(r.out, "✅ Set %s to: %s\n", result.Key, result.Value)
	fmt.Fprintf(r.out, "📁 config saved to: %s\n", relativePath(result.ConfigPath))
	return nil
}

// override notes a saved value that is not the one in effect
func (r *ConfigRenderer) override(result *usecase.ShowConfigResult, key config.ConfigKey) string {
	v, ok := result.Overrides[key]
	if !ok {
		return ""
	}
	return color.New(color.FgYellow).Sprintf(" (using %s from flags, env or perpdesk.toml)", v)
}

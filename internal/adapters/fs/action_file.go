package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/perpdesk/perpdesk/internal/domain/models"
	"github.com/perpdesk/perpdesk/internal/usecase"
	"gopkg.in/yaml.v3"
)

// ActionFileLoader reads actions saved as JSON or YAML. YAML documents use the
// same field names as the backend's JSON.
type ActionFileLoader struct{}

// NewActionFileLoader creates a new ActionFileLoader
func NewActionFileLoader() *ActionFileLoader {
	return &ActionFileLoader{}
}

// LoadAction decodes the action stored at path
func (l *ActionFileLoader) LoadAction(ctx context.Context, path string) (*models.Action, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	var action models.Action
	if err := json.Unmarshal(data, &action); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if action.ID == "" {
		return nil, fmt.Errorf("%s: action has no id", path)
	}
	return &action, nil
}

// yamlToJSON re-encodes a YAML document so the JSON tags of the models
// (and the raw signable payloads) apply unchanged
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Ensure ActionFileLoader implements ActionSource
var _ usecase.ActionSource = (*ActionFileLoader)(nil)

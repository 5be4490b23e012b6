package crawler

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jardhel/seu-claude/internal/errs"
)

// StatePath returns the default file-state.json path under dataDir.
func StatePath(dataDir string) string {
	return filepath.Join(dataDir, "file-state.json")
}

// LoadState reads the persisted path→FileState map. A missing file is not
// an error; it reports an empty map, matching a first-ever run.
func LoadState(path string) (map[string]FileState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]FileState{}, nil
		}
		return nil, errs.IO("failed to read file-state.json", err)
	}
	state := map[string]FileState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errs.IO("failed to parse file-state.json", err)
	}
	return state, nil
}

// SaveState writes the path→FileState map, creating dataDir if needed.
func SaveState(path string, state map[string]FileState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errs.IO("failed to create data dir", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errs.IO("failed to marshal file state", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errs.IO("failed to write file-state.json", err)
	}
	return nil
}

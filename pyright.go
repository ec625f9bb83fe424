package addonspath

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gopasspw/gopass/pkg/debug"
)

// PyrightConfig is the editor configuration consumed by pyright based language
// servers. Only extraPaths is managed.
type PyrightConfig struct {
	ExtraPaths []string `json:"extraPaths"`
}

// WritePyrightConfig writes {"extraPaths": paths} to fn, indented with four
// spaces. The file is replaced atomically.
func WritePyrightConfig(fn string, paths []string) error {
	cfg := PyrightConfig{
		ExtraPaths: append([]string{}, paths...),
	}

	buf, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode pyright config: %w", err)
	}
	buf = append(buf, '\n')

	debug.V(1).Log("writing %d extra paths to %s", len(paths), fn)

	return writeFileAtomic(fn, buf, 0o644)
}

// ReadPyrightConfig reads a pyright config written by WritePyrightConfig
// (or by hand).
func ReadPyrightConfig(fn string) (*PyrightConfig, error) {
	buf, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}

	var cfg PyrightConfig
	if err := json.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode pyright config %s: %w", fn, err)
	}

	return &cfg, nil
}

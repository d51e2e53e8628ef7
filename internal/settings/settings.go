// Package settings reads the lab-wide configuration file and classifies
// daily booking load.  The settings file is external input maintained by the
// lab admins; the service only ever reads it.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emclab/station-booking/internal/model"
)

// FileName is the settings file expected inside the configured data
// directory.
const FileName = "settings.json"

// Load reads and decodes <dataDir>/settings.json.
func Load(dataDir string) (model.Settings, error) {
	path := filepath.Join(dataDir, FileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Settings{}, fmt.Errorf("read settings file: %w", err)
	}
	var s model.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Settings{}, fmt.Errorf("parse %s: %w", FileName, err)
	}
	return s, nil
}

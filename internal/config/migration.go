package config

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/easyaudioflip/audioflip/internal/models"
)

// normalizeConfig cleans up hand-edited or older config files: blank ids are
// dropped, duplicates collapsed, and the list sorted so rewrites are stable.
func normalizeConfig(cfg *models.Config) {
	seen := make(map[string]struct{}, len(cfg.EnabledDeviceIDs))
	ids := make([]string, 0, len(cfg.EnabledDeviceIDs))
	for _, id := range cfg.EnabledDeviceIDs {
		if strings.TrimSpace(id) == "" {
			slog.Warn("config: dropping blank device id")
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	cfg.EnabledDeviceIDs = ids
}

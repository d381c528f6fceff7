// Package maintenance keeps dated copies of the persisted enabled set.
// It runs once at daemon startup; there are no background timers.
package maintenance

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/easyaudioflip/audioflip/internal/config"
)

const (
	backupDirName = "backups"
	backupPrefix  = "config-"
	// MaxBackupAge is how long dated copies are kept.
	MaxBackupAge = 30 * 24 * time.Hour
)

// Backup copies config.json in configDir to backups/config-YYYY-MM-DD.json.
// At most one copy is made per day. It returns the backup path, or "" when
// there is no config yet or today's copy already exists.
func Backup(configDir string, now time.Time) (string, error) {
	src := filepath.Join(configDir, config.FileName)
	data, err := os.ReadFile(src)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read config: %w", err)
	}

	backupDir := filepath.Join(configDir, backupDirName)
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	dest := filepath.Join(backupDir, backupPrefix+now.Format("2006-01-02")+".json")
	if _, err := os.Stat(dest); err == nil {
		return "", nil
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	pruneOldBackups(backupDir, now.Add(-MaxBackupAge))
	return dest, nil
}

// ListBackups returns the backup files in configDir, oldest first.
func ListBackups(configDir string) ([]string, error) {
	backupDir := filepath.Join(configDir, backupDirName)
	entries, err := os.ReadDir(backupDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) {
			files = append(files, filepath.Join(backupDir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// pruneOldBackups deletes backups last modified before cutoff.
func pruneOldBackups(backupDir string, cutoff time.Time) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(backupDir, e.Name())
			if err := os.Remove(path); err != nil {
				slog.Warn("maintenance: failed to prune old backup", "file", path, "err", err)
			} else {
				slog.Info("maintenance: pruned old backup", "file", path)
			}
		}
	}
}

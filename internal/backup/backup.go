// Package backup snapshots the token cache database on a cron schedule.
package backup

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/seatsync/seatsync/internal/logger"
)

// Manager handles scheduled and on-demand token cache backups.
type Manager struct {
	dbPath    string
	backupDir string
	retention int
	schedule  string
	cron      *cron.Cron
}

// Config holds backup configuration.
type Config struct {
	DBPath    string // path to tokens.db
	BackupDir string
	Retention int    // number of snapshots to keep
	Schedule  string // standard 5-field cron expression
}

// Snapshot is one stored backup of the token cache.
type Snapshot struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
}

const snapshotTimeLayout = "20060102_150405"

// New creates a backup Manager. The schedule is validated here so a bad
// expression fails at startup, not at the first tick.
func New(cfg Config) (*Manager, error) {
	if err := os.MkdirAll(cfg.BackupDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return nil, fmt.Errorf("invalid backup schedule %q: %w", cfg.Schedule, err)
		}
	}

	return &Manager{
		dbPath:    cfg.DBPath,
		backupDir: cfg.BackupDir,
		retention: cfg.Retention,
		schedule:  cfg.Schedule,
	}, nil
}

// Start begins scheduled backups if a schedule is configured.
func (m *Manager) Start() {
	if m.schedule == "" {
		return
	}

	m.cron = cron.New()
	_, _ = m.cron.AddFunc(m.schedule, func() {
		if _, err := m.Backup(); err != nil {
			logger.Error("Token cache backup failed: %v", err)
		}
	})
	m.cron.Start()

	logger.Info("Backup schedule active (%s, retention=%d)", m.schedule, m.retention)
}

// Stop halts scheduled backups and waits for a running one to finish.
func (m *Manager) Stop() {
	if m.cron != nil {
		ctx := m.cron.Stop()
		<-ctx.Done()
		logger.Info("Backup schedule stopped")
	}
}

// Backup writes one gzipped snapshot of the token cache database.
func (m *Manager) Backup() (*Snapshot, error) {
	src, err := os.Open(m.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open token cache db: %w", err)
	}
	defer func() { _ = src.Close() }()

	timestamp := time.Now()
	filename := fmt.Sprintf("tokens_%s.db.gz", timestamp.Format(snapshotTimeLayout))
	backupPath := filepath.Join(m.backupDir, filename)

	file, err := os.Create(backupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create backup file: %w", err)
	}
	defer func() { _ = file.Close() }()

	gw := gzip.NewWriter(file)
	if _, err := io.Copy(gw, src); err != nil {
		_ = gw.Close()
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize backup: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	m.enforceRetention()

	logger.Info("Created token cache backup %s (%d bytes)", filename, stat.Size())
	return &Snapshot{
		Filename:  filename,
		Timestamp: timestamp,
		SizeBytes: stat.Size(),
	}, nil
}

// ListSnapshots returns stored snapshots, newest first.
func (m *Manager) ListSnapshots() ([]Snapshot, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "tokens_") || !strings.HasSuffix(name, ".db.gz") {
			continue
		}
		ts, err := time.ParseInLocation(snapshotTimeLayout,
			strings.TrimSuffix(strings.TrimPrefix(name, "tokens_"), ".db.gz"), time.Local)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snapshots = append(snapshots, Snapshot{
			Filename:  name,
			Timestamp: ts,
			SizeBytes: info.Size(),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.After(snapshots[j].Timestamp)
	})
	return snapshots, nil
}

// enforceRetention removes the oldest snapshots beyond the limit.
func (m *Manager) enforceRetention() {
	if m.retention <= 0 {
		return
	}

	snapshots, err := m.ListSnapshots()
	if err != nil {
		logger.Error("Failed to list backups for retention: %v", err)
		return
	}

	for i := m.retention; i < len(snapshots); i++ {
		path := filepath.Join(m.backupDir, snapshots[i].Filename)
		if err := os.Remove(path); err != nil {
			logger.Error("Failed to remove old backup %s: %v", snapshots[i].Filename, err)
			continue
		}
		logger.Info("Removed old backup %s", snapshots[i].Filename)
	}
}

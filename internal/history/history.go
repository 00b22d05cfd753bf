// Package history stores the inputs typed into embedded shells so they can be
// recalled in later debugging sessions. It is only used when enabled in the
// configuration.
package history

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/atinylittleshell/embedsh/internal/core"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type HistoryManager struct {
	db   *gorm.DB
	path string
}

type HistoryEntry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`

	// SessionID identifies one opening of an embedded shell.
	SessionID      string `gorm:"index"`
	ExecutionCount int
	Source         string
	// Site is the "file:line" the shell was opened from.
	Site   string `gorm:"index"`
	Failed bool
}

const (
	historySchemaVersion = 1
)

var openDB = func(dbFilePath string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func NewHistoryManager(dbFilePath string) (*HistoryManager, error) {
	if err := core.EnsureParentDir(dbFilePath); err != nil {
		return nil, err
	}

	dbFileExists := true
	if _, err := os.Stat(dbFilePath); errors.Is(err, os.ErrNotExist) {
		dbFileExists = false
	} else if err != nil {
		return nil, fmt.Errorf("error checking history db: %w", err)
	}

	db, err := openDB(dbFilePath)
	if err != nil {
		return nil, fmt.Errorf("error opening history db: %w", err)
	}

	manager := &HistoryManager{db: db, path: dbFilePath}

	if manager.needsMigration(dbFileExists) {
		if err := db.AutoMigrate(&HistoryEntry{}); err != nil {
			manager.Close()
			return nil, fmt.Errorf("error auto-migrating history schema: %w", err)
		}
		if err := manager.writeSchemaVersion(historySchemaVersion); err != nil {
			manager.Close()
			return nil, fmt.Errorf("error writing history schema version: %w", err)
		}
	}

	return manager, nil
}

func (historyManager *HistoryManager) needsMigration(dbFileExists bool) bool {
	if !dbFileExists {
		return true
	}

	versionMatches, err := historyManager.schemaVersionMatches()
	if err != nil || !versionMatches {
		return true
	}

	// The marker can survive a manually deleted table.
	return !historyManager.db.Migrator().HasTable(&HistoryEntry{})
}

func (historyManager *HistoryManager) writeSchemaVersion(version int) error {
	return os.WriteFile(historyManager.schemaVersionPath(), []byte(strconv.Itoa(version)), 0644)
}

func (historyManager *HistoryManager) schemaVersionMatches() (bool, error) {
	data, err := os.ReadFile(historyManager.schemaVersionPath())
	if err != nil {
		return false, err
	}
	version, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, err
	}
	if version != historySchemaVersion {
		return false, fmt.Errorf("history schema version mismatch: got %d, want %d", version, historySchemaVersion)
	}
	return true, nil
}

func (historyManager *HistoryManager) schemaVersionPath() string {
	return historyManager.path + ".version"
}

// Record stores one executed input.
func (historyManager *HistoryManager) Record(entry HistoryEntry) (*HistoryEntry, error) {
	result := historyManager.db.Create(&entry)
	if result.Error != nil {
		return nil, result.Error
	}
	return &entry, nil
}

// GetRecentEntries returns up to limit entries, oldest first. An empty site
// returns entries from every call site.
func (historyManager *HistoryManager) GetRecentEntries(site string, limit int) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	db := historyManager.db
	if site != "" {
		db = db.Where("site = ?", site)
	}
	result := db.Order("created_at desc").Order("id desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	slices.Reverse(entries)
	return entries, nil
}

// GetSessionEntries returns all entries of a session in execution order.
func (historyManager *HistoryManager) GetSessionEntries(sessionID string) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	result := historyManager.db.Where("session_id = ?", sessionID).Order("id asc").Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// SearchHistory returns entries containing query, most recent first.
func (historyManager *HistoryManager) SearchHistory(query string, limit int) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	result := historyManager.db.Where("source LIKE ?", "%"+query+"%").
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

func (historyManager *HistoryManager) DeleteEntry(id uint) error {
	result := historyManager.db.Delete(&HistoryEntry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no history entry found with id %d", id)
	}
	return nil
}

func (historyManager *HistoryManager) ResetHistory() error {
	return historyManager.db.Exec("DELETE FROM history_entries").Error
}

// Close releases the database handle.
func (historyManager *HistoryManager) Close() error {
	sqlDB, err := historyManager.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

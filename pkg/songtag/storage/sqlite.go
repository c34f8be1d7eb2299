//go:build !js && !wasm
// +build !js,!wasm

// Package storage keeps the tagging history in SQLite.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/himanishpuri/songtag/pkg/models"
	"github.com/himanishpuri/songtag/pkg/utils"
)

const DefaultDBFile = "songtag.sqlite3"
const errDBClientNil = "db client is nil"

// ErrNotFound is returned for an unknown history entry.
var ErrNotFound = errors.New("tag not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// TagRecord is the history table row.
type TagRecord struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	TagID       string `gorm:"type:varchar(36);index:idx_tag_session"`
	TrackID     string `gorm:"index:idx_track_id"`
	Title       string
	Artist      string `gorm:"index:idx_artist"`
	URL         string
	Source      string
	ProcessedMs int64
	TaggedAt    time.Time `gorm:"index:idx_tagged_at"`
}

func (r TagRecord) model() models.Tag {
	return models.Tag{
		ID:          r.ID,
		TagID:       r.TagID,
		TrackID:     r.TrackID,
		Title:       r.Title,
		Artist:      r.Artist,
		URL:         r.URL,
		Source:      r.Source,
		ProcessedMs: r.ProcessedMs,
		TaggedAt:    r.TaggedAt,
	}
}

// NewDBClient opens SONGTAG_DB_PATH, or DefaultDBFile when unset.
func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("SONGTAG_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := utils.MakeDir(dir); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	// One writer at a time keeps SQLite from reporting SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&TagRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// SaveTag inserts t, filling in ID and TaggedAt when empty, and returns the
// stored entry.
func (c *DBClient) SaveTag(t models.Tag) (models.Tag, error) {
	if c == nil || c.DB == nil {
		return models.Tag{}, errors.New(errDBClientNil)
	}

	if t.ID == "" {
		t.ID = utils.GenerateUUID()
	}
	if t.TaggedAt.IsZero() {
		t.TaggedAt = time.Now().UTC()
	}

	rec := TagRecord{
		ID:          t.ID,
		TagID:       t.TagID,
		TrackID:     t.TrackID,
		Title:       t.Title,
		Artist:      t.Artist,
		URL:         t.URL,
		Source:      t.Source,
		ProcessedMs: t.ProcessedMs,
		TaggedAt:    t.TaggedAt,
	}
	if err := c.DB.Create(&rec).Error; err != nil {
		return models.Tag{}, fmt.Errorf("creating tag: %w", err)
	}
	return rec.model(), nil
}

// ListTags returns history entries newest first.
func (c *DBClient) ListTags(q models.HistoryQuery) ([]models.Tag, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	tx := c.DB.Model(&TagRecord{}).Order("tagged_at DESC").Order("id")
	if q.Artist != "" {
		tx = tx.Where("LOWER(artist) LIKE ?", "%"+strings.ToLower(q.Artist)+"%")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}

	var rows []TagRecord
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	out := make([]models.Tag, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (c *DBClient) GetTag(id string) (models.Tag, error) {
	if c == nil || c.DB == nil {
		return models.Tag{}, errors.New(errDBClientNil)
	}

	var rec TagRecord
	err := c.DB.Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Tag{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Tag{}, fmt.Errorf("querying tag: %w", err)
	}
	return rec.model(), nil
}

func (c *DBClient) DeleteTag(id string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}

	res := c.DB.Where("id = ?", id).Delete(&TagRecord{})
	if res.Error != nil {
		return fmt.Errorf("deleting tag: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// CountTags is the number of history entries.
func (c *DBClient) CountTags() (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}

	var n int64
	if err := c.DB.Model(&TagRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting tags: %w", err)
	}
	return n, nil
}

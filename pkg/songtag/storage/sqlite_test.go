//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/himanishpuri/songtag/pkg/models"
)

func setupTestDB(t *testing.T) (*DBClient, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_songtag.sqlite3")
	t.Setenv("SONGTAG_DB_PATH", dbPath)

	client, err := NewDBClient()
	if err != nil {
		t.Fatalf("Failed to create test DB client: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client, dbPath
}

func saveTag(t *testing.T, c *DBClient, title, artist string, at time.Time) models.Tag {
	t.Helper()
	tag, err := c.SaveTag(models.Tag{
		TagID:       "session-1",
		TrackID:     "42",
		Title:       title,
		Artist:      artist,
		URL:         "https://www.shazam.com/track/42/" + title,
		Source:      "microphone",
		ProcessedMs: 3008,
		TaggedAt:    at,
	})
	if err != nil {
		t.Fatalf("SaveTag failed: %v", err)
	}
	return tag
}

// TestNewDBClient checks the database file is created from SONGTAG_DB_PATH.
func TestNewDBClient(t *testing.T) {
	client, dbPath := setupTestDB(t)

	if client.DB == nil || client.db == nil {
		t.Fatal("Expected non-nil database handles")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at %s", dbPath)
	}
}

// TestNewDBClientWithPathCreatesDir checks missing parent directories are made.
func TestNewDBClientWithPathCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")

	client, err := NewDBClientWithPath(path)
	if err != nil {
		t.Fatalf("NewDBClientWithPath failed: %v", err)
	}
	defer client.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected database at %s, got %v", path, err)
	}
}

// TestSaveAndGetTag checks a saved entry reads back with generated fields.
func TestSaveAndGetTag(t *testing.T) {
	client, _ := setupTestDB(t)

	saved, err := client.SaveTag(models.Tag{Title: "Song", Artist: "Band", TrackID: "7"})
	if err != nil {
		t.Fatalf("SaveTag failed: %v", err)
	}
	if saved.ID == "" {
		t.Error("Expected a generated ID")
	}
	if saved.TaggedAt.IsZero() {
		t.Error("Expected TaggedAt to be set")
	}

	got, err := client.GetTag(saved.ID)
	if err != nil {
		t.Fatalf("GetTag failed: %v", err)
	}
	if got.Title != "Song" || got.Artist != "Band" || got.TrackID != "7" {
		t.Errorf("Unexpected tag %+v", got)
	}
}

// TestListTagsOrderAndFilter checks newest-first ordering, paging and the
// artist filter.
func TestListTagsOrderAndFilter(t *testing.T) {
	client, _ := setupTestDB(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	saveTag(t, client, "first", "Daft Punk", base)
	saveTag(t, client, "second", "Justice", base.Add(time.Minute))
	saveTag(t, client, "third", "daft punk", base.Add(2*time.Minute))

	all, err := client.ListTags(models.HistoryQuery{})
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 tags, got %d", len(all))
	}
	if all[0].Title != "third" || all[2].Title != "first" {
		t.Errorf("Expected newest first, got %s..%s", all[0].Title, all[2].Title)
	}

	page, err := client.ListTags(models.HistoryQuery{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if len(page) != 1 || page[0].Title != "second" {
		t.Errorf("Expected [second], got %+v", page)
	}

	daft, err := client.ListTags(models.HistoryQuery{Artist: "DAFT"})
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if len(daft) != 2 {
		t.Errorf("Expected 2 Daft Punk tags, got %d", len(daft))
	}

	n, err := client.CountTags()
	if err != nil {
		t.Fatalf("CountTags failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3, got %d", n)
	}
}

// TestDeleteTag checks deletion and the not-found error.
func TestDeleteTag(t *testing.T) {
	client, _ := setupTestDB(t)
	tag := saveTag(t, client, "gone", "Nobody", time.Now())

	if err := client.DeleteTag(tag.ID); err != nil {
		t.Fatalf("DeleteTag failed: %v", err)
	}
	if _, err := client.GetTag(tag.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := client.DeleteTag(tag.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for second delete, got %v", err)
	}
}

// TestNilClient checks methods on a nil client fail instead of panicking.
func TestNilClient(t *testing.T) {
	var c *DBClient

	if _, err := c.SaveTag(models.Tag{}); err == nil {
		t.Error("Expected error from SaveTag on nil client")
	}
	if _, err := c.ListTags(models.HistoryQuery{}); err == nil {
		t.Error("Expected error from ListTags on nil client")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Expected nil from Close on nil client, got %v", err)
	}
}

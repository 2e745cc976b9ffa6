// Package settings persists the site settings record that points the
// storefront at the published banners.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"banner-editor/internal/device"
)

// ErrNotFound is returned when a key has never been set.
var ErrNotFound = errors.New("setting not found")

// Setting is one key/value row.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// CacheBustedURL appends ?v=<unix updated_at> so clients refetch a banner
// after it is replaced. Empty values stay empty.
func (s Setting) CacheBustedURL() string {
	if s.Value == "" {
		return ""
	}
	u, err := url.Parse(s.Value)
	if err != nil {
		return s.Value
	}
	q := u.Query()
	q.Set("v", strconv.FormatInt(s.UpdatedAt.Unix(), 10))
	u.RawQuery = q.Encode()
	return u.String()
}

// Store is a SQLite backed settings table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the settings database.
func Open(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	stmt := `
	CREATE TABLE IF NOT EXISTS site_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(stmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create site_settings table: %w", err)
	}
	logrus.WithField("dataSourceName", dataSourceName).Debug("Opened settings database")
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set inserts or replaces the value for key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	log := logrus.WithField("key", key)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO site_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().Unix())
	if err != nil {
		log.WithError(err).Error("Failed to save setting")
		return err
	}
	log.Info("Setting saved")
	return nil
}

// Get returns the row for key.
func (s *Store) Get(ctx context.Context, key string) (Setting, error) {
	var (
		setting Setting
		updated int64
	)
	err := s.db.QueryRowContext(ctx, "SELECT key, value, updated_at FROM site_settings WHERE key = ?", key).
		Scan(&setting.Key, &setting.Value, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Setting{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return Setting{}, err
	}
	setting.UpdatedAt = time.Unix(updated, 0)
	return setting, nil
}

// BannerURL returns the cache-busted URL published for k, or "" when none
// is set.
func (s *Store) BannerURL(ctx context.Context, k device.Key) (string, error) {
	key := k.SettingKey()
	if key == "" {
		return "", fmt.Errorf("%s has no banner setting", k)
	}
	setting, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.CacheBustedURL(), nil
}

// Banners returns the settings for every banner device that has one.
func (s *Store) Banners(ctx context.Context) (map[device.Key]Setting, error) {
	out := make(map[device.Key]Setting)
	for _, k := range device.BannerKeys() {
		setting, err := s.Get(ctx, k.SettingKey())
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[k] = setting
	}
	return out, nil
}

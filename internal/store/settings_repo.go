package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"querybox-relay/internal/model"
)

// ListSettings returns every setting ordered by category then key.
func (repo *Repository) ListSettings() ([]model.Setting, error) {
	settings := []model.Setting{}
	if err := repo.dbConn.Select(&settings, "SELECT * FROM app_settings ORDER BY category, key"); err != nil {
		return nil, fmt.Errorf("listing settings: %w", err)
	}
	return settings, nil
}

// SettingsByCategory returns the settings of one category ordered by key.
func (repo *Repository) SettingsByCategory(category string) ([]model.Setting, error) {
	settings := []model.Setting{}
	if err := repo.dbConn.Select(&settings, "SELECT * FROM app_settings WHERE category = ? ORDER BY key", category); err != nil {
		return nil, fmt.Errorf("listing settings of %s: %w", category, err)
	}
	return settings, nil
}

// SettingsMap returns key to value for one category.
func (repo *Repository) SettingsMap(category string) (map[string]string, error) {
	settings, err := repo.SettingsByCategory(category)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(settings))
	for _, s := range settings {
		m[s.Key] = s.Value
	}
	return m, nil
}

// GetSetting returns the setting with key, or ErrNotFound.
func (repo *Repository) GetSetting(key string) (*model.Setting, error) {
	var s model.Setting
	err := repo.dbConn.Get(&s, "SELECT * FROM app_settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("setting %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting setting %s: %w", key, err)
	}
	return &s, nil
}

// CreateSetting inserts a new setting.
func (repo *Repository) CreateSetting(s model.NewSetting) error {
	if strings.TrimSpace(s.Key) == "" {
		return fmt.Errorf("setting key is required: %w", ErrInvalidArgument)
	}
	query := `INSERT INTO app_settings (key, value, value_type, category, description) VALUES (?, ?, ?, ?, ?)`
	if _, err := repo.dbConn.Exec(query, s.Key, s.Value, s.ValueType, s.Category, s.Description); err != nil {
		return fmt.Errorf("inserting setting %s: %w", s.Key, err)
	}
	return nil
}

// UpdateSetting replaces the value of key and reports whether a row changed.
func (repo *Repository) UpdateSetting(key string, u model.UpdateSetting) (bool, error) {
	query := "UPDATE app_settings SET value = ?, updated_at = " + timestampExpr + " WHERE key = ?"
	res, err := repo.dbConn.Exec(query, u.Value, key)
	if err != nil {
		return false, fmt.Errorf("updating setting %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating setting %s: %w", key, err)
	}
	return n > 0, nil
}

// DeleteSetting removes key and reports whether a row changed.
func (repo *Repository) DeleteSetting(key string) (bool, error) {
	res, err := repo.dbConn.Exec("DELETE FROM app_settings WHERE key = ?", key)
	if err != nil {
		return false, fmt.Errorf("deleting setting %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting setting %s: %w", key, err)
	}
	return n > 0, nil
}

// UpsertSetting updates key if it exists, otherwise creates it from opts.
// Creating without opts fails with ErrMissingUpsertOptions.
func (repo *Repository) UpsertSetting(key, value string, opts *model.UpsertOptions) error {
	_, err := repo.GetSetting(key)
	switch {
	case err == nil:
		_, err = repo.UpdateSetting(key, model.UpdateSetting{Value: value})
		return err
	case !errors.Is(err, ErrNotFound):
		return err
	}

	if opts == nil {
		return fmt.Errorf("setting %s: %w", key, ErrMissingUpsertOptions)
	}
	desc := opts.Description
	return repo.CreateSetting(model.NewSetting{
		Key:         key,
		Value:       value,
		ValueType:   opts.ValueType,
		Category:    opts.Category,
		Description: &desc,
	})
}

// SettingBool reads key as a boolean ("true" or "false", any case).
func (repo *Repository) SettingBool(key string) (bool, error) {
	s, err := repo.GetSetting(key)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(s.Value) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("setting %s: invalid boolean %q: %w", key, s.Value, ErrInvalidArgument)
}

// SettingInt reads key as a base-10 integer.
func (repo *Repository) SettingInt(key string) (int64, error) {
	s, err := repo.GetSetting(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("setting %s: invalid number %q: %w", key, s.Value, ErrInvalidArgument)
	}
	return n, nil
}

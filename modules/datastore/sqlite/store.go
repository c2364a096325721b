package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/witxhhaven/fig-design-assistant/internal/session"
)

// Settings keys.
const (
	keyCredential   = "credential"
	keyModel        = "model"
	keyRules        = "rules"
	keyCreativeMode = "creative_mode"
)

// settingsStore implements session.SettingsStore and
// provider.CredentialSource backed by the settings table.
type settingsStore struct {
	db *sql.DB
}

// Load returns the full settings snapshot. Missing keys read as zero
// values, so a fresh database yields empty settings, not an error.
func (s *settingsStore) Load(ctx context.Context) (session.Settings, error) {
	var st session.Settings

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return session.Settings{}, fmt.Errorf("sqlite: load settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return session.Settings{}, fmt.Errorf("sqlite: scan setting: %w", err)
		}
		switch key {
		case keyCredential:
			st.Credential = value
		case keyModel:
			st.Model = value
		case keyRules:
			st.Rules = value
		case keyCreativeMode:
			st.CreativeMode = value == "1"
		}
	}
	if err := rows.Err(); err != nil {
		return session.Settings{}, fmt.Errorf("sqlite: load settings: %w", err)
	}

	return st, nil
}

// SetCredential stores the API credential.
func (s *settingsStore) SetCredential(ctx context.Context, credential string) error {
	return s.set(ctx, keyCredential, credential)
}

// SetModel stores the model identifier.
func (s *settingsStore) SetModel(ctx context.Context, model string) error {
	return s.set(ctx, keyModel, model)
}

// SetRules stores the operator's custom rules.
func (s *settingsStore) SetRules(ctx context.Context, rules string) error {
	return s.set(ctx, keyRules, rules)
}

// SetCreativeMode stores the creative-mode flag.
func (s *settingsStore) SetCreativeMode(ctx context.Context, on bool) error {
	value := "0"
	if on {
		value = "1"
	}
	return s.set(ctx, keyCreativeMode, value)
}

// Credential implements provider.CredentialSource.
func (s *settingsStore) Credential(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", keyCredential).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: read credential: %w", err)
	}
	return value, nil
}

func (s *settingsStore) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at)
		 VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("sqlite: set %s: %w", key, err)
	}
	return nil
}

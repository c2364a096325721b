package session

import "context"

// Settings are the operator-adjustable knobs persisted across restarts.
type Settings struct {
	Credential   string
	Model        string
	Rules        string
	CreativeMode bool
}

// SettingsStore persists operator settings. Each field is independently
// settable; Load returns the full current snapshot.
type SettingsStore interface {
	Load(ctx context.Context) (Settings, error)
	SetCredential(ctx context.Context, credential string) error
	SetModel(ctx context.Context, model string) error
	SetRules(ctx context.Context, rules string) error
	SetCreativeMode(ctx context.Context, on bool) error
}

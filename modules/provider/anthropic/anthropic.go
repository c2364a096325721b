// Package anthropic implements the provider.anthropic module, bridging
// the assistant to the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"log/slog"
	"os"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/witxhhaven/fig-design-assistant/internal/core"
	"github.com/witxhhaven/fig-design-assistant/internal/provider"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Anthropic{})
}

// Interface guards.
var (
	_ core.Module       = (*Anthropic)(nil)
	_ core.Configurable = (*Anthropic)(nil)
	_ core.Provisioner  = (*Anthropic)(nil)
	_ core.Validator    = (*Anthropic)(nil)
	_ provider.Provider = (*Anthropic)(nil)
)

// Anthropic is the provider.anthropic module. The API credential is
// resolved from the credential source on every call, so a key saved in
// the panel settings takes effect on the next request.
type Anthropic struct {
	config Config
	creds  provider.CredentialSource
	logger *slog.Logger
}

// ModuleInfo implements core.Module.
func (a *Anthropic) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.anthropic",
		New: func() core.Module { return &Anthropic{} },
	}
}

// Configure implements core.Configurable.
func (a *Anthropic) Configure(node *yaml.Node) error {
	if err := node.Decode(&a.config); err != nil {
		return err
	}
	a.config.defaults()
	return nil
}

// Provision implements core.Provisioner. It resolves the credential
// source and registers itself under "provider.llm".
func (a *Anthropic) Provision(ctx *core.AppContext) error {
	a.logger = ctx.Logger
	a.config.defaults()

	if svc, ok := ctx.Service("provider.credentials"); ok {
		a.creds, _ = svc.(provider.CredentialSource)
	}

	ctx.RegisterService("provider.llm", a)
	return nil
}

// Validate implements core.Validator.
func (a *Anthropic) Validate() error {
	if a.config.Model == "" {
		return errors.New("provider.anthropic: model must not be empty")
	}
	return nil
}

// ModelName implements provider.Provider.
func (a *Anthropic) ModelName() string {
	return a.config.Model
}

// credential resolves the API key: the runtime credential source wins,
// then the config file, then the conventional environment variable.
func (a *Anthropic) credential(ctx context.Context) (string, error) {
	if a.creds != nil {
		key, err := a.creds.Credential(ctx)
		if err != nil {
			return "", err
		}
		if key != "" {
			return key, nil
		}
	}
	if a.config.APIKey != "" {
		return a.config.APIKey, nil
	}
	if key, ok := os.LookupEnv("ANTHROPIC_API_KEY"); ok && key != "" {
		return key, nil
	}
	return "", provider.ErrNoCredential
}

// client builds an SDK client bound to the given key. Clients are cheap
// to construct, and building per call keeps credential rotation simple.
func (a *Anthropic) client(key string) *sdkanthropic.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		// Disable SDK-level retries; failures surface to the operator.
		option.WithMaxRetries(0),
	}
	if a.config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(a.config.BaseURL))
	}
	client := sdkanthropic.NewClient(opts...)
	return &client
}

package provider

import "context"

// CredentialSource supplies the API credential at request time. Keeping
// resolution per-call means a credential saved through the settings
// surface takes effect immediately, without reprovisioning the provider.
type CredentialSource interface {
	Credential(ctx context.Context) (string, error)
}

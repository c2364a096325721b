package provider

import "errors"

// Sentinel errors for provider operations.
var (
	// ErrNoCredential indicates no API credential is configured. This is
	// a first-class state: callers surface a settings prompt, not a
	// generic failure.
	ErrNoCredential = errors.New("no credential configured")

	// ErrAuth indicates the credential was rejected by the provider.
	ErrAuth = errors.New("provider rejected credential")

	// ErrRateLimit indicates the provider returned a rate limit response.
	ErrRateLimit = errors.New("provider rate limited")

	// ErrUnreachable indicates the provider is temporarily unavailable.
	ErrUnreachable = errors.New("provider unreachable")

	// ErrMalformedResponse indicates the model's output did not parse as
	// the expected proposal shape.
	ErrMalformedResponse = errors.New("malformed model response")
)

// RemediationHint returns an operator-facing hint for a transport or
// auth failure, or "" when the error carries no specific remediation.
func RemediationHint(err error) string {
	switch {
	case errors.Is(err, ErrNoCredential):
		return "Add your API key in the settings panel."
	case errors.Is(err, ErrAuth):
		return "Your API key was rejected. Check it in the settings panel."
	case errors.Is(err, ErrRateLimit):
		return "The provider is rate limiting requests. Wait a moment and try again."
	case errors.Is(err, ErrUnreachable):
		return "The provider could not be reached. Check your connection and try again."
	default:
		return ""
	}
}

// Package secrets provides platform-abstracted storage for auth
// tokens. On macOS tokens live in the system Keychain; on other
// platforms a no-op fallback is used and the caller falls back to
// re-authenticating each session.
package secrets

import "errors"

// ServiceName identifies Wakili credentials in the system keychain.
const ServiceName = "Wakili"

// accountPrefix namespaces token accounts so other Wakili credentials
// can share the service entry later.
const accountPrefix = "token:"

// ErrNotFound is returned when a credential is not in the store.
var ErrNotFound = errors.New("credential not found")

// ErrNotSupported is returned when no secret store exists on the
// current platform.
var ErrNotSupported = errors.New("secret store not supported on this platform")

// SecretStore stores credentials securely. Implementations must be
// safe for concurrent use.
type SecretStore interface {
	// Get retrieves a password for the given service and account.
	// Returns ErrNotFound if the credential does not exist.
	Get(service, account string) (string, error)

	// Set stores a password for the given service and account,
	// replacing any existing value.
	Set(service, account, password string) error

	// Delete removes a credential for the given service and account.
	// Returns ErrNotFound if the credential does not exist.
	Delete(service, account string) error

	// IsSupported reports whether the store actually persists on this
	// platform.
	IsSupported() bool
}

// store is set by the platform-specific init().
var store SecretStore

// Default returns the SecretStore for the current platform. Always
// non-nil; unsupported platforms get a NoopStore.
func Default() SecretStore {
	if store == nil {
		store = &NoopStore{}
	}
	return store
}

// IsSupported reports whether secure credential storage is available.
func IsSupported() bool {
	return Default().IsSupported()
}

// Get retrieves a password using the default store.
func Get(service, account string) (string, error) {
	return Default().Get(service, account)
}

// Set stores a password using the default store.
func Set(service, account, password string) error {
	return Default().Set(service, account, password)
}

// Delete removes a credential using the default store.
func Delete(service, account string) error {
	return Default().Delete(service, account)
}

func tokenAccount(phoneNumber string) string {
	return accountPrefix + phoneNumber
}

// GetToken retrieves the stored auth token for a phone number.
func GetToken(phoneNumber string) (string, error) {
	return Get(ServiceName, tokenAccount(phoneNumber))
}

// SetToken stores the auth token for a phone number.
func SetToken(phoneNumber, token string) error {
	return Set(ServiceName, tokenAccount(phoneNumber), token)
}

// DeleteToken removes the stored auth token for a phone number.
func DeleteToken(phoneNumber string) error {
	return Delete(ServiceName, tokenAccount(phoneNumber))
}

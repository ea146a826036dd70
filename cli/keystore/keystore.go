// Package keystore stores API keys encrypted at rest.
package keystore

import (
	"os"
	"path/filepath"
	"runtime"
)

// Keystore is the storage contract the CLI programs against.
// Implementations must be safe for concurrent use.
type Keystore interface {
	// Set stores or replaces the key for a service.
	Set(name, value string) error
	// Get returns the key for a service. A missing entry is reported
	// with *ErrKeyNotFound.
	Get(name string) (string, error)
	// Delete removes the key for a service. A missing entry is reported
	// with *ErrKeyNotFound.
	Delete(name string) error
	// List returns the stored service names in sorted order.
	List() ([]string, error)
}

// ErrKeyNotFound reports a service with no stored key.
type ErrKeyNotFound struct {
	Name string
}

func (e *ErrKeyNotFound) Error() string {
	return "keystore: no key for " + e.Name
}

// DefaultKeystorePath returns the keystore file location, next to the
// config file:
//   - macOS/Linux: ~/.scribe/keys.enc
//   - Windows: %USERPROFILE%\.scribe\keys.enc
func DefaultKeystorePath() string {
	var home string
	if runtime.GOOS == "windows" {
		home = os.Getenv("USERPROFILE")
	} else {
		home = os.Getenv("HOME")
	}
	if home == "" {
		return "keys.enc"
	}
	return filepath.Join(home, ".scribe", "keys.enc")
}

// NewKeystore opens the file keystore at the default path.
func NewKeystore() (Keystore, error) {
	return NewFileKeystore(DefaultKeystorePath()), nil
}

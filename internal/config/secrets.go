package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

const (
	// EnvAPIKey carries the tagging service credential.
	EnvAPIKey = "ROLO_TAGGING_API_KEY"

	keyringService = "rolodex"
	keyringUser    = "tagging-api-key"
)

// ErrNoAPIKey is returned when no credential is found anywhere.
var ErrNoAPIKey = errors.New("no tagging API key found (set " + EnvAPIKey + " or run 'rolo auth login')")

// KeySource names where a credential was found.
type KeySource string

const (
	KeyFromEnv     KeySource = "environment"
	KeyFromDotenv  KeySource = "dotenv"
	KeyFromKeyring KeySource = "keyring"
)

// ResolveAPIKey looks up the tagging credential: the process environment
// first, then envFile (if it exists), then the OS keyring.
func ResolveAPIKey(envFile string) (string, KeySource, error) {
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		return key, KeyFromEnv, nil
	}

	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			if key := strings.TrimSpace(vars[EnvAPIKey]); key != "" {
				return key, KeyFromDotenv, nil
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return "", "", fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	key, err := keyring.Get(keyringService, keyringUser)
	if err == nil && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key), KeyFromKeyring, nil
	}
	return "", "", ErrNoAPIKey
}

// StoreAPIKey saves the credential in the OS keyring.
func StoreAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key must not be empty")
	}
	if err := keyring.Set(keyringService, keyringUser, key); err != nil {
		return fmt.Errorf("failed to store key in keyring: %w", err)
	}
	return nil
}

// DeleteAPIKey removes the credential from the OS keyring. Deleting a key
// that is not stored is not an error.
func DeleteAPIKey() error {
	err := keyring.Delete(keyringService, keyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete key from keyring: %w", err)
	}
	return nil
}

// Copyright (C) 2025 Boekwerk B.V.
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "Boekwerk-CLI"
	keyringAccount = "api-key"

	encryptedKeyFile = ".api_key.enc"
)

// Security strategy:
// 1. Environment variable (BOEKWERK_API_KEY) - CI/CD, containers
// 2. System keyring - macOS/Windows, or Linux with a desktop session
// 3. Encrypted file (AES-256-GCM) - universal fallback
//
// On headless Linux we go straight to the encrypted file; desktop keyrings
// are often absent or misconfigured there.

// SecureStorage handles secure storage of the API key
type SecureStorage struct {
	useKeyring bool
	configDir  string
}

// NewSecureStorage creates a new secure storage instance
func NewSecureStorage() *SecureStorage {
	homeDir, _ := os.UserHomeDir()

	return &SecureStorage{
		useKeyring: isKeyringAvailable(),
		configDir:  filepath.Join(homeDir, ".boekwerk"),
	}
}

// SaveAPIKey securely stores the API key
func (s *SecureStorage) SaveAPIKey(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	if s.useKeyring {
		if err := keyring.Set(keyringService, keyringAccount, apiKey); err == nil {
			return nil
		}
		// Fall back to encrypted file if keyring fails
	}

	return s.saveEncryptedAPIKey(apiKey)
}

// GetAPIKey retrieves the API key from secure storage
func (s *SecureStorage) GetAPIKey() (string, error) {
	// Environment variable has highest priority
	if envKey := os.Getenv(EnvAPIKey); envKey != "" {
		return envKey, nil
	}

	if s.useKeyring {
		apiKey, err := keyring.Get(keyringService, keyringAccount)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	apiKey, err := s.getEncryptedAPIKey()
	if err == nil && apiKey != "" {
		return apiKey, nil
	}

	return "", fmt.Errorf("API key not found. Please run 'boekwerk config set api-key YOUR_KEY'")
}

// DeleteAPIKey removes the API key from all storage locations
func (s *SecureStorage) DeleteAPIKey() error {
	var errs []string
	var removedAny bool

	if s.useKeyring {
		if err := keyring.Delete(keyringService, keyringAccount); err != nil {
			if err != keyring.ErrNotFound && !isKeyringServiceError(err) {
				errs = append(errs, fmt.Sprintf("keyring: %v", err))
			}
		} else {
			removedAny = true
		}
	}

	encryptedFile := filepath.Join(s.configDir, encryptedKeyFile)
	if err := os.Remove(encryptedFile); err != nil {
		if !os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("encrypted file: %v", err))
		}
	} else {
		removedAny = true
	}

	if len(errs) > 0 && !removedAny {
		return fmt.Errorf("failed to remove API key: %s", errs[0])
	}

	return nil
}

// isKeyringServiceError checks if the error is due to keyring service not being available
func isKeyringServiceError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return errStr == "The name is not activatable" ||
		errStr == "Cannot autolaunch D-Bus without X11 $DISPLAY" ||
		errStr == "The name org.freedesktop.secrets was not provided by any .service files"
}

func (s *SecureStorage) saveEncryptedAPIKey(apiKey string) error {
	if err := os.MkdirAll(s.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	encrypted, err := encrypt([]byte(apiKey), s.getEncryptionKey())
	if err != nil {
		return fmt.Errorf("failed to encrypt API key: %w", err)
	}

	encryptedFile := filepath.Join(s.configDir, encryptedKeyFile)
	if err := os.WriteFile(encryptedFile, []byte(encrypted), 0600); err != nil {
		return fmt.Errorf("failed to save encrypted API key: %w", err)
	}

	return nil
}

func (s *SecureStorage) getEncryptedAPIKey() (string, error) {
	encryptedFile := filepath.Join(s.configDir, encryptedKeyFile)

	data, err := os.ReadFile(encryptedFile)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read encrypted API key: %w", err)
	}

	decrypted, err := decrypt(string(data), s.getEncryptionKey())
	if err != nil {
		return "", fmt.Errorf("failed to decrypt API key: %w", err)
	}

	return string(decrypted), nil
}

// getEncryptionKey generates a machine-specific encryption key
func (s *SecureStorage) getEncryptionKey() []byte {
	var parts []string

	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		parts = append(parts, hostname)
	}

	if username := os.Getenv("USER"); username != "" {
		parts = append(parts, username)
	} else if username := os.Getenv("USERNAME"); username != "" {
		parts = append(parts, username)
	}

	if home, err := os.UserHomeDir(); err == nil {
		parts = append(parts, home)
	}

	if runtime.GOOS == "linux" {
		if machineID, err := os.ReadFile("/etc/machine-id"); err == nil {
			parts = append(parts, string(machineID))
		} else if machineID, err := os.ReadFile("/var/lib/dbus/machine-id"); err == nil {
			parts = append(parts, string(machineID))
		}
	}

	parts = append(parts, "Boekwerk-CLI-2025-Secure")

	combined := fmt.Sprintf("%s", parts)
	hash := sha256.Sum256([]byte(combined))
	return hash[:]
}

// isKeyringAvailable checks if system keyring is available
func isKeyringAvailable() bool {
	switch runtime.GOOS {
	case "darwin", "windows":
		return true
	case "linux":
		// Avoid keyrings on headless servers, containers, WSL, etc.
		if os.Getenv("SSH_CONNECTION") != "" || os.Getenv("CONTAINER") != "" {
			return false
		}
		if _, err := os.Stat("/.dockerenv"); err == nil {
			return false
		}
		if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
			return false
		}

		hasDesktop := os.Getenv("DESKTOP_SESSION") != "" ||
			os.Getenv("GNOME_DESKTOP_SESSION_ID") != "" ||
			os.Getenv("KDE_FULL_SESSION") != "" ||
			os.Getenv("XDG_CURRENT_DESKTOP") != ""

		hasDisplay := os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""

		return hasDesktop && hasDisplay
	default:
		return false
	}
}

// encrypt encrypts data using AES-GCM
func encrypt(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, data, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts data using AES-GCM
func decrypt(encrypted string, key []byte) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// SecureConfig wraps Config with secure API key handling
type SecureConfig struct {
	*Config
	storage *SecureStorage
}

// LoadSecureConfig loads config with secure API key handling
func LoadSecureConfig() (*SecureConfig, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	storage := NewSecureStorage()

	// Override API key with secure storage
	if secureKey, err := storage.GetAPIKey(); err == nil && secureKey != "" {
		config.APIKey = secureKey
	}

	return &SecureConfig{
		Config:  config,
		storage: storage,
	}, nil
}

// SaveAPIKey saves the API key securely
func (sc *SecureConfig) SaveAPIKey(apiKey string) error {
	return sc.storage.SaveAPIKey(apiKey)
}

// DeleteAPIKey removes the stored API key
func (sc *SecureConfig) DeleteAPIKey() error {
	return sc.storage.DeleteAPIKey()
}

// GetStorageInfo returns information about where the API key is stored
func (sc *SecureConfig) GetStorageInfo() map[string]interface{} {
	info := make(map[string]interface{})

	if os.Getenv(EnvAPIKey) != "" {
		info["source"] = "environment"
		info["secure"] = true
		return info
	}

	if sc.storage.useKeyring {
		if _, err := keyring.Get(keyringService, keyringAccount); err == nil {
			info["source"] = "system_keyring"
			info["secure"] = true
			info["keyring_type"] = getKeyringType()
			return info
		}
	}

	encryptedFile := filepath.Join(sc.storage.configDir, encryptedKeyFile)
	if _, err := os.Stat(encryptedFile); err == nil {
		info["source"] = "encrypted_file"
		info["secure"] = true
		info["location"] = encryptedFile
		return info
	}

	info["source"] = "not_found"
	info["secure"] = false
	return info
}

func getKeyringType() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	case "linux":
		if os.Getenv("GNOME_DESKTOP_SESSION_ID") != "" {
			return "GNOME Keyring"
		}
		if os.Getenv("KDE_FULL_SESSION") != "" {
			return "KWallet"
		}
		return "Linux Secret Service"
	default:
		return "Unknown"
	}
}

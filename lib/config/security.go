package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-i2p/logger"
)

// SecureFilePermissions is used for the config file, which may hold passwords.
const SecureFilePermissions = 0o600

// SecureDirPermissions is used for the config directory.
const SecureDirPermissions = 0o700

// CreateSecureDirectory creates path with SecureDirPermissions.
func CreateSecureDirectory(path string) error {
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(cleanPath, SecureDirPermissions); err != nil {
		return fmt.Errorf("failed to create secure directory %q: %w", cleanPath, err)
	}
	// MkdirAll leaves an existing directory's mode alone.
	if err := os.Chmod(cleanPath, SecureDirPermissions); err != nil {
		log.WithFields(logger.Fields{
			"at":     "CreateSecureDirectory",
			"reason": "chmod_failed",
			"path":   cleanPath,
			"error":  err.Error(),
		}).Warn("could not set secure permissions on directory")
	}
	return nil
}

// WriteSecureFile writes data with SecureFilePermissions.
func WriteSecureFile(path string, data []byte) error {
	cleanPath := filepath.Clean(path)
	if err := os.WriteFile(cleanPath, data, SecureFilePermissions); err != nil {
		return fmt.Errorf("failed to write secure file %q: %w", cleanPath, err)
	}
	if err := os.Chmod(cleanPath, SecureFilePermissions); err != nil {
		log.WithFields(logger.Fields{
			"at":     "WriteSecureFile",
			"reason": "chmod_failed",
			"path":   cleanPath,
			"error":  err.Error(),
		}).Warn("could not set secure permissions on file")
	}
	return nil
}

// IsPathSecure reports whether path grants no permission bits beyond maxMode.
// A missing path counts as secure.
func IsPathSecure(path string, maxMode os.FileMode) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	return info.Mode().Perm()&^maxMode == 0, nil
}

// CheckConfigPermissions warns when cfg stores a password inline in a file
// other users can read.
func CheckConfigPermissions(path string, cfg *Config) {
	inline := false
	for _, s := range cfg.Sessions {
		if s.Password != "" {
			inline = true
			break
		}
	}
	if !inline {
		return
	}
	secure, err := IsPathSecure(path, SecureFilePermissions)
	if err != nil || secure {
		return
	}
	log.WithFields(logger.Fields{
		"at":     "CheckConfigPermissions",
		"reason": "password_in_readable_file",
		"path":   path,
	}).Warn("config file holds a password and is readable by other users; chmod 600 it or use password_env")
}

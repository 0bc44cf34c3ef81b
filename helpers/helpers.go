// Package helpers provides small filesystem and environment utilities
// shared by the CLI entrypoint, adapted from the wider client library's
// helpers package, trimmed to the two functions the batch engine's
// command line actually needs.
package helpers

import (
	"fmt"
	"os"
	"path/filepath"
)

// SafeOpenInput opens a manifest file for reading after cleaning and
// resolving its path. A path whose symlinks cannot be resolved (for
// example a dangling symlink) is rejected; a symlink that resolves is
// followed to its target, wherever that is.
func SafeOpenInput(filePath string) (*os.File, error) {
	cleanPath := filepath.Clean(filePath)

	absPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve input manifest path %q: %w", filePath, err)
	}

	return os.Open(absPath)
}

// EnvOrDefault returns the value of an environment variable, or
// defaultValue if it is unset.
func EnvOrDefault(envKey, defaultValue string) string {
	if value, exists := os.LookupEnv(envKey); exists {
		return value
	}
	return defaultValue
}

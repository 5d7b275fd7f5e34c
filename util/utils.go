package util

import (
	"log"
	"os"
	"path/filepath"
)

// GetAbsolutePath resolves a path relative to the current working
// directory; absolute paths pass through unchanged.
func GetAbsolutePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	root, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	return filepath.Join(root, path)
}

func StringPtr(s string) *string {
	return &s
}

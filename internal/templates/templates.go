// Package templates provides the driver template: the built-in one, or a
// custom one read from a file or a zipped template pack.
package templates

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/omnisketch/drivergen/internal/compressor"
)

// FileName is the template file inside template directories and packs.
const FileName = "driver.cpp.tmpl"

//go:embed driver.cpp.tmpl
var builtin string

// Default returns the built-in driver template.
func Default() string { return builtin }

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

// Load returns the template at path. An empty path selects the built-in
// template and a .zip path is unpacked as a template pack holding FileName.
func Load(path string) (string, error) {
	if path == "" {
		return builtin, nil
	}
	path, err := expandPath(path)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return loadPack(path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(b), nil
}

func loadPack(zipPath string) (string, error) {
	if err := compressor.ZipExists(zipPath); err != nil {
		return "", fmt.Errorf("template pack %s: %w", zipPath, err)
	}
	tempDir, err := os.MkdirTemp("", "drivergen-templates")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tempDir)
	if err := compressor.Unzip(zipPath, tempDir); err != nil {
		return "", fmt.Errorf("unpack %s: %w", zipPath, err)
	}
	b, err := os.ReadFile(filepath.Join(tempDir, FileName))
	if err != nil {
		return "", fmt.Errorf("template pack %s has no %s: %w", zipPath, FileName, err)
	}
	return string(b), nil
}

// Export writes the built-in template into dst, a directory, or packs it
// into dst when dst ends in .zip. It returns the path written.
func Export(dst string) (string, error) {
	if !strings.EqualFold(filepath.Ext(dst), ".zip") {
		if err := os.MkdirAll(dst, os.ModePerm); err != nil {
			return "", err
		}
		out := filepath.Join(dst, FileName)
		return out, os.WriteFile(out, []byte(builtin), 0o644)
	}
	staging, err := os.MkdirTemp("", "drivergen-export")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(staging)
	if err := os.WriteFile(filepath.Join(staging, FileName), []byte(builtin), 0o644); err != nil {
		return "", err
	}
	return dst, compressor.ZipDir(staging, dst)
}

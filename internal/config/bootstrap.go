package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"leadgen-engine/internal/icp"
)

// EnsureWorkspace creates the data dir layout on first run: config.yml,
// the built-in ICP bundles under icp/, and the output dir. Existing files
// are never touched. Returns the config path.
func EnsureWorkspace(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	cfgPath := filepath.Join(dataDir, "config.yml")
	_, err := os.Stat(cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		if err := SaveAtomic(cfgPath, Default(dataDir)); err != nil {
			return "", fmt.Errorf("write default config: %w", err)
		}
	} else if err != nil {
		return "", err
	}

	if err := ensureBundles(filepath.Join(dataDir, "icp")); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Join(dataDir, "out"), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return cfgPath, nil
}

// ensureBundles seeds the built-in ICP bundles. A bundle file the user
// already has, edited or not, is left alone.
func ensureBundles(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create icp dir: %w", err)
	}
	for _, bundle := range icp.Builtins() {
		path := filepath.Join(dir, bundle.Name+".yml")
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		b, err := yaml.Marshal(bundle)
		if err != nil {
			return fmt.Errorf("marshal bundle %s: %w", bundle.Name, err)
		}
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return fmt.Errorf("write bundle %s: %w", bundle.Name, err)
		}
	}
	return nil
}

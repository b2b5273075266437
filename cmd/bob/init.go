package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nugget/bob-assistant/examples"
)

// runInit prepares a working directory with a starter config, an .env
// file for secrets and the database directory. Existing files are
// never overwritten.
func runInit(w io.Writer, dir string) error {
	fmt.Fprintf(w, "Initializing Bob workspace in %s\n", dir)

	dbDir := filepath.Join(dir, "db")
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dbDir, err)
	}

	for _, f := range []struct {
		name    string
		content []byte
	}{
		{"config.yaml", examples.ConfigYAML},
		{".env", examples.EnvFile},
	} {
		path := filepath.Join(dir, f.name)
		if err := writeIfMissing(path, f.content); err != nil {
			return err
		}
		fmt.Fprintf(w, "  ✓ %s\n", path)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fill in .env and review config.yaml, then run: bob serve")
	return nil
}

// writeIfMissing writes content to path only if the file does not
// already exist. Files are private since they hold credentials.
func writeIfMissing(path string, content []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

package accounts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cleared-dev/txengine/internal/model"
)

// Load reads a snapshot file.
func Load(path string) ([]model.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	return accts, nil
}

// Save writes a snapshot file, creating parent directories as needed.
func Save(path string, accounts []model.Account) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}

	if err := WriteAccounts(f, accounts); err != nil {
		f.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return f.Close()
}

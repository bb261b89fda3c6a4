package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindRoot looks upwards from startDir for a directory holding the vault
// marker (the system dir, ".nook" unless another name is given) and
// returns its absolute path.
func FindRoot(startDir string, systemDir ...string) (string, error) {
	marker := DefaultSystemDir
	if len(systemDir) > 0 && systemDir[0] != "" {
		marker = systemDir[0]
	}

	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if isDir(filepath.Join(dir, marker)) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("vault root not found from %s", abs)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

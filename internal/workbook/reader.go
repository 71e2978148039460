//go:build !windows

package workbook

import (
	"fmt"
	"os"
)

// ReadShared reads the file's full contents. On non-Windows platforms there
// is no mandatory file locking to contend with, so a plain read suffices.
func ReadShared(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

//go:build windows

package workbook

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/windows"
)

// ReadShared reads the file's full contents even while another process (a
// desktop spreadsheet editor, typically) holds it open. The file is opened
// with every share flag set so concurrent readers, writers and deleters are
// not blocked; only a path that cannot be opened at all is an error.
func ReadShared(path string) ([]byte, error) {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	h, err := windows.CreateFile(
		name,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	f := os.NewFile(uintptr(h), path)
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

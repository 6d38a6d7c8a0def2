// internal/client/share/share.go
package share

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/csvexport"
	"github.com/dalemusser/communityhub/internal/domain/record"
)

// ErrNothingToExport is returned when there are no records to write.
var ErrNothingToExport = errors.New("nothing to export")

// Target receives a finished export. It returns where the file ended up.
type Target interface {
	Share(name string, data []byte) (string, error)
}

// CacheDir writes exports under Dir. An empty Dir means the user cache
// directory.
type CacheDir struct {
	Dir string
}

func (c CacheDir) dir() (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate cache dir: %w", err)
	}
	return filepath.Join(base, "communityhub", "exports"), nil
}

// Share writes data to <dir>/<name> as UTF-8 and returns the full path.
func (c CacheDir) Share(name string, data []byte) (string, error) {
	dir, err := c.dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// Page exports records as one flat table named after base.
func Page(t Target, base string, records []record.Record, now time.Time) (string, error) {
	if len(records) == 0 {
		return "", ErrNothingToExport
	}
	var buf bytes.Buffer
	if err := csvexport.WriteTable(&buf, records); err != nil {
		return "", fmt.Errorf("render csv: %w", err)
	}
	return t.Share(csvexport.Filename(base, now), buf.Bytes())
}

// Account exports one payment account as a metadata block followed by its
// member table.
func Account(t Target, base string, account record.Record, now time.Time) (string, error) {
	if account.Len() == 0 {
		return "", ErrNothingToExport
	}
	var buf bytes.Buffer
	if err := csvexport.WriteAccount(&buf, account); err != nil {
		return "", fmt.Errorf("render csv: %w", err)
	}
	return t.Share(csvexport.Filename(base, now), buf.Bytes())
}

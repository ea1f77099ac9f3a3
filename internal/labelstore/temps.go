package labelstore

import (
	"fmt"
	"strings"

	"github.com/starford/labelvault/internal/storage"
)

// tempPrefix starts every temporary file name written by Save. The suffix
// is the Unix time in milliseconds.
const tempPrefix = "." + FileName + ".tmp."

// IsTempName reports whether name looks like a Save temporary file.
func IsTempName(name string) bool {
	return strings.HasPrefix(name, tempPrefix)
}

// OrphanedTemps lists temporary files in the data directory. Files present
// while no Save is running were left by a crash between encode and rename;
// the label file itself is unaffected by them.
func OrphanedTemps(p storage.Provider) ([]string, error) {
	names, err := p.Glob(tempPrefix + "*")
	if err != nil {
		return nil, fmt.Errorf("labelstore: list temp files: %w", err)
	}
	return names, nil
}

// RemoveOrphanedTemps deletes the files OrphanedTemps reports and returns
// how many were removed. Do not call it while a Save may be running.
func RemoveOrphanedTemps(p storage.Provider) (int, error) {
	names, err := OrphanedTemps(p)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range names {
		if err := p.Remove(name); err != nil {
			return removed, fmt.Errorf("labelstore: remove temp file: %w", err)
		}
		removed++
	}
	return removed, nil
}

package index

import (
	"log/slog"
	"time"

	"github.com/starford/labelvault/internal/bip329"
)

// Sync rebuilds the index from labels. The label file stays the source of
// truth; the index is disposable and rebuilt on every start.
func Sync(db LabelIndex, labels *bip329.Labels, logger *slog.Logger) error {
	start := time.Now()
	if err := db.ReplaceAll(labels); err != nil {
		return err
	}
	logger.Debug("sync: index rebuilt",
		slog.Int("count", labels.Len()),
		slog.Duration("took", time.Since(start)))
	return nil
}

// Package storage implements archive writers for released batches.
package storage

import (
	"fmt"
	"time"

	"github.com/Touchkin/eventcollate/pkg/storage"
)

// Ensure implementation satisfies interface.
var _ storage.Router = (*DefaultRouter)(nil)

// DefaultRouter implements Hive-style partitioning for archive paths.
type DefaultRouter struct {
	protocol string
	bucket   string
	basePath string
}

// NewRouter creates a new archive path router.
func NewRouter(protocol, bucket, basePath string) *DefaultRouter {
	return &DefaultRouter{
		protocol: protocol,
		bucket:   bucket,
		basePath: basePath,
	}
}

// Route returns the archive path for a batch released from the given input
// topic at the given Unix timestamp (seconds).
// Format: protocol://bucket/basePath/topic/dt=YYYY-MM-DD/
// Partitioning uses the batch release time, so every file of one collation
// window lands under the same date partition.
func (r *DefaultRouter) Route(topic string, releasedAtUnix int64) string {
	t := time.Unix(releasedAtUnix, 0).UTC()
	date := t.Format("2006-01-02")

	return fmt.Sprintf("%s://%s/%s/%s/dt=%s/",
		r.protocol,
		r.bucket,
		r.basePath,
		topic,
		date,
	)
}

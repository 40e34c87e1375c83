// Package encoder defines interfaces for encoding batches to file formats.
package encoder

import (
	"github.com/Touchkin/eventcollate/pkg/collate"
	"github.com/Touchkin/eventcollate/pkg/event"
)

// FileFormat represents the archive file format.
type FileFormat string

const (
	FormatParquet FileFormat = "parquet"
	FormatAvro    FileFormat = "avro"
)

// Encoder encodes a released batch to a specific file format.
type Encoder interface {
	// Encode writes the batch to a file and returns write statistics.
	Encode(filePath string, batch *collate.Batch) (*event.WriteStats, error)

	// Format returns the file format this encoder produces.
	Format() FileFormat

	// FileExtension returns the file extension (e.g., ".parquet", ".avro").
	FileExtension() string
}

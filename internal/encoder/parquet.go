package encoder

import (
	"fmt"
	"os"
	"time"

	"github.com/Touchkin/eventcollate/pkg/collate"
	"github.com/Touchkin/eventcollate/pkg/encoder"
	"github.com/Touchkin/eventcollate/pkg/event"
	"github.com/parquet-go/parquet-go"
)

// Ensure implementation satisfies interface at compile time.
var _ encoder.Encoder = (*ParquetEncoder)(nil)

// CollatedRecordParquet represents the Parquet schema for collated records.
// Uses native Parquet types for Athena compatibility, including
// TIMESTAMP_MICROS for time fields.
type CollatedRecordParquet struct {
	// Event fields - required
	ID     string `parquet:"id,dict"`
	Source string `parquet:"source,dict"`
	Type   string `parquet:"type,dict"`
	Data   string `parquet:"data"`

	// Event fields - optional (using pointers for proper NULL handling)
	Subject *string    `parquet:"subject,dict,optional"`
	Time    *time.Time `parquet:"time,timestamp(microsecond),optional"`

	// Kafka metadata fields
	KafkaTopic     string    `parquet:"kafka_topic,dict"`
	KafkaPartition int32     `parquet:"kafka_partition"`
	KafkaOffset    int64     `parquet:"kafka_offset"`
	KafkaTimestamp time.Time `parquet:"kafka_timestamp,timestamp(microsecond)"`

	// Collation metadata
	BatchID    string    `parquet:"batch_id,dict"`
	Sequence   int32     `parquet:"sequence"`
	Trigger    string    `parquet:"trigger,dict"`
	CollatedAt time.Time `parquet:"collated_at,timestamp(microsecond)"`
}

// ParquetEncoder implements encoder.Encoder for Apache Parquet columnar
// format. Uses the parquet-go library for full Athena/Hive compatibility.
// Supports multiple compression codecs: SNAPPY (default), GZIP, LZ4, ZSTD.
type ParquetEncoder struct {
	compressionName string
}

// NewParquetEncoder creates a new Parquet encoder with specified compression.
func NewParquetEncoder(compression string) *ParquetEncoder {
	return &ParquetEncoder{
		compressionName: compression,
	}
}

// compressionCodec converts string compression name to parquet WriterOption.
func compressionCodec(compression string) parquet.WriterOption {
	switch compression {
	case "snappy", "SNAPPY":
		return parquet.Compression(&parquet.Snappy)
	case "gzip", "GZIP":
		return parquet.Compression(&parquet.Gzip)
	case "lz4", "LZ4":
		return parquet.Compression(&parquet.Lz4Raw)
	case "zstd", "ZSTD":
		return parquet.Compression(&parquet.Zstd)
	case "uncompressed", "UNCOMPRESSED", "none", "NONE":
		return parquet.Compression(&parquet.Uncompressed)
	default:
		return parquet.Compression(&parquet.Snappy)
	}
}

// Encode writes a released batch to a Parquet file. Row order follows batch
// order, so the collated ordering survives into the archive.
func (e *ParquetEncoder) Encode(filePath string, batch *collate.Batch) (*event.WriteStats, error) {
	if batch.Len() == 0 {
		return nil, fmt.Errorf("no records to encode")
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	parquetRecords := make([]CollatedRecordParquet, batch.Len())
	for i := range batch.Records {
		parquetRecords[i] = e.convertToParquetRecord(batch, &batch.Records[i])
	}

	schema := parquet.SchemaOf(new(CollatedRecordParquet))

	writer := parquet.NewGenericWriter[CollatedRecordParquet](
		file,
		schema,
		compressionCodec(e.compressionName),
		parquet.CreatedBy("eventcollate", "1.0", "0"),
	)

	if _, err := writer.Write(parquetRecords); err != nil {
		writer.Close()
		file.Close()
		return nil, fmt.Errorf("failed to write records: %w", err)
	}

	if err := writer.Close(); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &event.WriteStats{
		RecordCount: batch.Len(),
		SizeBytes:   fileInfo.Size(),
	}, nil
}

// convertToParquetRecord converts a collated record to its Parquet representation.
func (e *ParquetEncoder) convertToParquetRecord(batch *collate.Batch, rec *event.Record) CollatedRecordParquet {
	parquetRec := CollatedRecordParquet{
		ID:             rec.Event.ID,
		Source:         rec.Event.Source,
		Type:           rec.Event.Type,
		Data:           string(rec.Event.Data),
		KafkaTopic:     rec.Kafka.Topic,
		KafkaPartition: rec.Kafka.Partition,
		KafkaOffset:    rec.Kafka.Offset,
		KafkaTimestamp: rec.Kafka.Timestamp,
		BatchID:        batch.ID,
		Sequence:       int32(rec.Sequence),
		Trigger:        string(batch.Trigger),
		CollatedAt:     rec.CollatedAt,
	}

	if rec.Event.Subject != nil {
		parquetRec.Subject = rec.Event.Subject
	}
	if rec.Event.Time != nil {
		parquetRec.Time = rec.Event.Time
	}

	return parquetRec
}

// Format returns the file format.
func (e *ParquetEncoder) Format() encoder.FileFormat {
	return encoder.FormatParquet
}

// FileExtension returns the file extension.
func (e *ParquetEncoder) FileExtension() string {
	return ".parquet"
}

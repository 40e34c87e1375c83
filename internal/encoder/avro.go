// Package encoder implements file format encoders for released batches.
package encoder

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Touchkin/eventcollate/pkg/collate"
	"github.com/Touchkin/eventcollate/pkg/encoder"
	"github.com/Touchkin/eventcollate/pkg/event"
	"github.com/linkedin/goavro/v2"
)

// Ensure implementation satisfies interface at compile time.
var _ encoder.Encoder = (*AvroEncoder)(nil)

// AvroEncoder implements encoder.Encoder for Apache Avro binary format.
// It supports optional gzip compression and produces OCF (Object Container
// File) format compatible with Apache Spark and other Avro readers. Records
// are written in batch order, so the file preserves the collated ordering.
type AvroEncoder struct {
	codec       *goavro.Codec
	compression string
}

// NewAvroEncoder creates a new Avro encoder with specified compression.
func NewAvroEncoder(compression string) (*AvroEncoder, error) {
	schema := avroSchema()
	codec, err := goavro.NewCodec(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to create avro codec: %w", err)
	}

	return &AvroEncoder{
		codec:       codec,
		compression: compression,
	}, nil
}

// avroSchema returns the Avro schema for collated records.
func avroSchema() string {
	return `{
		"type": "record",
		"name": "CollatedRecord",
		"namespace": "com.eventcollate",
		"fields": [
			{"name": "id", "type": "string"},
			{"name": "source", "type": "string"},
			{"name": "type", "type": "string"},
			{"name": "subject", "type": ["null", "string"], "default": null},
			{"name": "time", "type": ["null", "string"], "default": null},
			{"name": "data", "type": "string"},
			{"name": "attributes", "type": {"type": "map", "values": "string"}},
			{"name": "kafka_topic", "type": "string"},
			{"name": "kafka_partition", "type": "int"},
			{"name": "kafka_offset", "type": "long"},
			{"name": "kafka_timestamp", "type": "string"},
			{"name": "batch_id", "type": "string"},
			{"name": "sequence", "type": "int"},
			{"name": "trigger", "type": "string"},
			{"name": "collated_at", "type": "string"}
		]
	}`
}

// Encode writes a released batch to an Avro file.
func (e *AvroEncoder) Encode(filePath string, batch *collate.Batch) (*event.WriteStats, error) {
	if batch.Len() == 0 {
		return nil, fmt.Errorf("no records to encode")
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	var writer io.Writer = file
	var gzipWriter *gzip.Writer

	if e.compression == "gzip" || e.compression == "GZIP" {
		gzipWriter = gzip.NewWriter(file)
		writer = gzipWriter
		defer gzipWriter.Close()
	}

	ocfWriter, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:     writer,
		Codec: e.codec,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OCF writer: %w", err)
	}

	for i := range batch.Records {
		avroMap := e.convertToAvroMap(batch, &batch.Records[i])

		if err := ocfWriter.Append([]interface{}{avroMap}); err != nil {
			return nil, fmt.Errorf("failed to write record: %w", err)
		}
	}

	if gzipWriter != nil {
		if err := gzipWriter.Close(); err != nil {
			return nil, fmt.Errorf("failed to close gzip writer: %w", err)
		}
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

// EncodeToBytes encodes a batch to bytes (useful for testing).
func (e *AvroEncoder) EncodeToBytes(batch *collate.Batch) ([]byte, error) {
	if batch.Len() == 0 {
		return nil, fmt.Errorf("no records to encode")
	}

	var buf bytes.Buffer
	var writer io.Writer = &buf

	var gzipWriter *gzip.Writer
	if e.compression == "gzip" || e.compression == "GZIP" {
		gzipWriter = gzip.NewWriter(&buf)
		writer = gzipWriter
	}

	ocfWriter, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:     writer,
		Codec: e.codec,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OCF writer: %w", err)
	}

	for i := range batch.Records {
		avroMap := e.convertToAvroMap(batch, &batch.Records[i])

		if err := ocfWriter.Append([]interface{}{avroMap}); err != nil {
			return nil, fmt.Errorf("failed to write record: %w", err)
		}
	}

	if gzipWriter != nil {
		if err := gzipWriter.Close(); err != nil {
			return nil, fmt.Errorf("failed to close gzip writer: %w", err)
		}
	}

	return buf.Bytes(), nil
}

// convertToAvroMap converts a collated record to its Avro map representation.
func (e *AvroEncoder) convertToAvroMap(batch *collate.Batch, rec *event.Record) map[string]interface{} {
	attributes := map[string]string{}
	if rec.Event.Attributes != nil {
		attributes = rec.Event.Attributes
	}

	avroMap := map[string]interface{}{
		"id":              rec.Event.ID,
		"source":          rec.Event.Source,
		"type":            rec.Event.Type,
		"data":            string(rec.Event.Data),
		"attributes":      attributes,
		"kafka_topic":     rec.Kafka.Topic,
		"kafka_partition": rec.Kafka.Partition,
		"kafka_offset":    rec.Kafka.Offset,
		"kafka_timestamp": rec.Kafka.Timestamp.Format(time.RFC3339Nano),
		"batch_id":        batch.ID,
		"sequence":        int32(rec.Sequence),
		"trigger":         string(batch.Trigger),
		"collated_at":     rec.CollatedAt.Format(time.RFC3339Nano),
	}

	// Optional fields - use goavro.Union for nullable fields
	if rec.Event.Subject != nil && *rec.Event.Subject != "" {
		avroMap["subject"] = goavro.Union("string", *rec.Event.Subject)
	} else {
		avroMap["subject"] = nil
	}

	if rec.Event.Time != nil {
		avroMap["time"] = goavro.Union("string", rec.Event.Time.Format(time.RFC3339Nano))
	} else {
		avroMap["time"] = nil
	}

	return avroMap
}

// Format returns the file format.
func (e *AvroEncoder) Format() encoder.FileFormat {
	return encoder.FormatAvro
}

// FileExtension returns the file extension.
func (e *AvroEncoder) FileExtension() string {
	if e.compression == "gzip" || e.compression == "GZIP" {
		return ".avro.gz"
	}
	return ".avro"
}

// Package encoder provides batch encoding to various file formats.
//
// This package implements encoders for converting released batches into
// file formats suitable for archival and analytics, with configurable
// compression. Row order inside every file follows the batch order, so
// the collated ordering is preserved in the archive.
//
// # Supported Formats
//
// The package supports two file formats:
//
//   - Parquet: Columnar format optimized for analytics and Athena queries
//   - Avro: Row-based format with embedded schema
//
// # Encoder Factory
//
// Use Factory to create encoder instances:
//
//	factory := encoder.NewFactory(encoder.FormatParquet, "snappy")
//	enc, err := factory.CreateEncoder()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Encoding Batches
//
// All encoders implement the pkg/encoder.Encoder interface:
//
//	stats, err := enc.Encode(filePath, batch)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Encoded %d records, %d bytes\n",
//	    stats.RecordCount, stats.SizeBytes)
//
// # Schema
//
// Both schemas carry the event fields, the Kafka metadata of the source
// message, and the collation metadata (batch ID, sequence, trigger,
// collation timestamp) that make each row traceable back to the batch
// that released it.
//
// # Compression Options
//
// Supported compression codecs:
//
//	Parquet: "snappy", "gzip", "lz4", "zstd", "none"
//	Avro:    "gzip", "none"
//
// # Thread Safety
//
// Encoder instances are safe for concurrent use. Factory.CreateEncoder()
// creates independent encoder instances.
package encoder

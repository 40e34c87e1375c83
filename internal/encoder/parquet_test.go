package encoder

import (
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func TestNewParquetEncoder(t *testing.T) {
	enc := NewParquetEncoder("snappy")
	if enc == nil {
		t.Fatal("expected non-nil encoder")
	}
	if enc.FileExtension() != ".parquet" {
		t.Errorf("FileExtension() = %s, want .parquet", enc.FileExtension())
	}
}

func TestParquetEncoder_Encode(t *testing.T) {
	enc := NewParquetEncoder("snappy")

	batch := testBatch(3)
	filePath := filepath.Join(t.TempDir(), "batch-1.parquet")

	stats, err := enc.Encode(filePath, batch)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	if stats.RecordCount != 3 {
		t.Errorf("RecordCount = %d, want 3", stats.RecordCount)
	}
	if stats.SizeBytes <= 0 {
		t.Errorf("SizeBytes = %d, want positive", stats.SizeBytes)
	}
}

func TestParquetEncoder_RoundTrip(t *testing.T) {
	enc := NewParquetEncoder("snappy")

	batch := testBatch(5)
	filePath := filepath.Join(t.TempDir(), "batch-1.parquet")

	if _, err := enc.Encode(filePath, batch); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	rows, err := parquet.ReadFile[CollatedRecordParquet](filePath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if len(rows) != 5 {
		t.Fatalf("read %d rows, want 5", len(rows))
	}

	// Row order must match batch order.
	for i, row := range rows {
		if row.ID != batch.Records[i].Event.ID {
			t.Errorf("row %d id = %s, want %s", i, row.ID, batch.Records[i].Event.ID)
		}
		if row.BatchID != "batch-1" {
			t.Errorf("row %d batch_id = %s, want batch-1", i, row.BatchID)
		}
		if row.Sequence != int32(i) {
			t.Errorf("row %d sequence = %d, want %d", i, row.Sequence, i)
		}
		if row.Subject == nil || *row.Subject != "orders/42" {
			t.Errorf("row %d subject = %v, want orders/42", i, row.Subject)
		}
	}
}

func TestParquetEncoder_EncodeEmpty(t *testing.T) {
	enc := NewParquetEncoder("snappy")

	filePath := filepath.Join(t.TempDir(), "empty.parquet")
	if _, err := enc.Encode(filePath, testBatch(0)); err == nil {
		t.Error("expected error encoding empty batch")
	}
}

func TestParquetEncoder_Compressions(t *testing.T) {
	compressions := []string{"snappy", "gzip", "lz4", "zstd", "none"}

	for _, compression := range compressions {
		t.Run(compression, func(t *testing.T) {
			enc := NewParquetEncoder(compression)
			batch := testBatch(2)
			filePath := filepath.Join(t.TempDir(), "batch.parquet")

			stats, err := enc.Encode(filePath, batch)
			if err != nil {
				t.Fatalf("Encode() with %s error = %v", compression, err)
			}
			if stats.RecordCount != 2 {
				t.Errorf("RecordCount = %d, want 2", stats.RecordCount)
			}
		})
	}
}

func BenchmarkParquetEncoder_Encode(b *testing.B) {
	enc := NewParquetEncoder("snappy")
	batch := testBatch(100)
	dir := b.TempDir()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		filePath := filepath.Join(dir, "bench.parquet")
		if _, err := enc.Encode(filePath, batch); err != nil {
			b.Fatalf("Encode() error = %v", err)
		}
	}
}

package event

import (
	"testing"
	"time"
)

func TestStreamID_String(t *testing.T) {
	tests := []struct {
		name string
		sid  StreamID
		want string
	}{
		{
			name: "simple topic",
			sid:  StreamID{Topic: "events", Partition: 0},
			want: "events-0",
		},
		{
			name: "topic with dashes",
			sid:  StreamID{Topic: "user-events", Partition: 12},
			want: "user-events-12",
		},
		{
			name: "empty topic",
			sid:  StreamID{Topic: "", Partition: 3},
			want: "-3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sid.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecord_Timestamp(t *testing.T) {
	eventTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	kafkaTime := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)

	t.Run("uses event time when present", func(t *testing.T) {
		r := Record{
			Event: &Event{ID: "e1", Source: "test", Type: "test.event", Time: &eventTime},
			Kafka: KafkaMetadata{Timestamp: kafkaTime},
		}
		if got := r.Timestamp(); !got.Equal(eventTime) {
			t.Errorf("Timestamp() = %v, want %v", got, eventTime)
		}
	})

	t.Run("falls back to kafka timestamp", func(t *testing.T) {
		r := Record{
			Event: &Event{ID: "e1", Source: "test", Type: "test.event"},
			Kafka: KafkaMetadata{Timestamp: kafkaTime},
		}
		if got := r.Timestamp(); !got.Equal(kafkaTime) {
			t.Errorf("Timestamp() = %v, want %v", got, kafkaTime)
		}
	})

	t.Run("falls back when event is nil", func(t *testing.T) {
		r := Record{
			Kafka: KafkaMetadata{Timestamp: kafkaTime},
		}
		if got := r.Timestamp(); !got.Equal(kafkaTime) {
			t.Errorf("Timestamp() = %v, want %v", got, kafkaTime)
		}
	})
}

func TestRecord_TimestampUnix(t *testing.T) {
	eventTime := time.Date(2025, 6, 1, 12, 0, 0, 500_000_000, time.UTC)

	r := Record{
		Event: &Event{ID: "e1", Source: "test", Type: "test.event", Time: &eventTime},
	}

	want := eventTime.Unix()
	if got := r.TimestampUnix(); got != want {
		t.Errorf("TimestampUnix() = %d, want %d", got, want)
	}
}

func TestRecord_CollationStateDefaults(t *testing.T) {
	r := Record{
		Event: &Event{ID: "e1", Source: "test", Type: "test.event"},
	}

	if r.Collated {
		t.Error("new record should not be marked collated")
	}
	if r.BatchID != "" {
		t.Errorf("BatchID = %q, want empty", r.BatchID)
	}
	if !r.CollatedAt.IsZero() {
		t.Errorf("CollatedAt = %v, want zero", r.CollatedAt)
	}
	if r.Sequence != 0 {
		t.Errorf("Sequence = %d, want 0", r.Sequence)
	}
}

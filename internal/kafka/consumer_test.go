package kafka

import (
	"testing"

	"github.com/IBM/sarama"
)

func TestOffsetInitial(t *testing.T) {
	tests := []struct {
		name   string
		offset string
		want   int64
	}{
		{"earliest", "earliest", sarama.OffsetOldest},
		{"latest", "latest", sarama.OffsetNewest},
		{"empty defaults to latest", "", sarama.OffsetNewest},
		{"unknown defaults to latest", "bogus", sarama.OffsetNewest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := offsetInitial(tt.offset); got != tt.want {
				t.Errorf("offsetInitial(%q) = %v, want %v", tt.offset, got, tt.want)
			}
		})
	}
}

func TestConfigureSecurity(t *testing.T) {
	tests := []struct {
		name    string
		config  ConsumerConfig
		wantErr bool
	}{
		{
			name:    "plaintext",
			config:  ConsumerConfig{SecurityProtocol: "PLAINTEXT"},
			wantErr: false,
		},
		{
			name:    "ssl",
			config:  ConsumerConfig{SecurityProtocol: "SSL"},
			wantErr: false,
		},
		{
			name: "sasl plain",
			config: ConsumerConfig{
				SecurityProtocol: "SASL_SSL",
				SASLMechanism:    "PLAIN",
				SASLUsername:     "user",
				SASLPassword:     "pass",
			},
			wantErr: false,
		},
		{
			name: "sasl scram sha256",
			config: ConsumerConfig{
				SecurityProtocol: "SASL_SSL",
				SASLMechanism:    "SCRAM-SHA-256",
				SASLUsername:     "user",
				SASLPassword:     "pass",
			},
			wantErr: false,
		},
		{
			name: "sasl scram sha512",
			config: ConsumerConfig{
				SecurityProtocol: "SASL_PLAINTEXT",
				SASLMechanism:    "SCRAM-SHA-512",
				SASLUsername:     "user",
				SASLPassword:     "pass",
			},
			wantErr: false,
		},
		{
			name: "unsupported mechanism",
			config: ConsumerConfig{
				SecurityProtocol: "SASL_SSL",
				SASLMechanism:    "GSSAPI",
			},
			wantErr: true,
		},
		{
			name:    "unsupported protocol",
			config:  ConsumerConfig{SecurityProtocol: "KERBEROS"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saramaConfig := sarama.NewConfig()
			err := configureSecurity(saramaConfig, tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("configureSecurity() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseEvent(t *testing.T) {
	h := &consumerGroupHandler{}

	msg := &sarama.ConsumerMessage{
		Topic: "events",
		Value: []byte(`{"id":"evt-1","source":"orders","type":"order.created","data":{"amount":42}}`),
	}

	evt, err := h.parseEvent(msg)
	if err != nil {
		t.Fatalf("parseEvent() error = %v", err)
	}
	if evt.ID != "evt-1" {
		t.Errorf("ID = %s, want evt-1", evt.ID)
	}
	if evt.Source != "orders" {
		t.Errorf("Source = %s, want orders", evt.Source)
	}
	if evt.Type != "order.created" {
		t.Errorf("Type = %s, want order.created", evt.Type)
	}
}

func TestParseEvent_InvalidJSON(t *testing.T) {
	h := &consumerGroupHandler{}

	msg := &sarama.ConsumerMessage{
		Topic: "events",
		Value: []byte(`{not json`),
	}

	if _, err := h.parseEvent(msg); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestExtractHeaders(t *testing.T) {
	h := &consumerGroupHandler{}

	headers := []*sarama.RecordHeader{
		{Key: []byte(HeaderCollated), Value: []byte("true")},
		{Key: []byte(HeaderBatchID), Value: []byte("batch-1")},
	}

	result := h.extractHeaders(headers)

	if result[HeaderCollated] != "true" {
		t.Errorf("collated header = %q, want true", result[HeaderCollated])
	}
	if result[HeaderBatchID] != "batch-1" {
		t.Errorf("batch_id header = %q, want batch-1", result[HeaderBatchID])
	}
}

func TestExtractHeaders_Empty(t *testing.T) {
	h := &consumerGroupHandler{}

	result := h.extractHeaders(nil)
	if len(result) != 0 {
		t.Errorf("expected empty headers, got %v", result)
	}
}

func TestCollatedMarkerDetection(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    bool
	}{
		{"marker true", map[string]string{HeaderCollated: "true"}, true},
		{"marker false", map[string]string{HeaderCollated: "false"}, false},
		{"marker absent", map[string]string{}, false},
		{"marker empty", map[string]string{HeaderCollated: ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.headers[HeaderCollated] == "true"; got != tt.want {
				t.Errorf("collated = %v, want %v", got, tt.want)
			}
		})
	}
}

package dto

import (
	"testing"
	"time"
)

func TestApplicationConfig_Validate(t *testing.T) {
	valid := func() *ApplicationConfig {
		return &ApplicationConfig{
			Application: ApplicationInfo{Name: "eventcollate"},
			Kafka: KafkaConfig{
				BootstrapServers: []string{"localhost:9092"},
				Consumer:         ConsumerConfig{GroupID: "collate-group"},
				Output:           OutputConfig{Topic: "collated-events"},
			},
			Collate: CollateConfig{
				Count:    1000,
				Interval: 60 * time.Second,
				Order:    "ascending",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ApplicationConfig)
		wantErr bool
	}{
		{"valid", func(c *ApplicationConfig) {}, false},
		{"missing name", func(c *ApplicationConfig) { c.Application.Name = "" }, true},
		{"missing bootstrap servers", func(c *ApplicationConfig) { c.Kafka.BootstrapServers = nil }, true},
		{"missing group id", func(c *ApplicationConfig) { c.Kafka.Consumer.GroupID = "" }, true},
		{"missing output topic", func(c *ApplicationConfig) { c.Kafka.Output.Topic = "" }, true},
		{"invalid collate section", func(c *ApplicationConfig) { c.Collate.Count = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)
			if err := config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCollateConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  CollateConfig
		wantErr bool
	}{
		{
			name:    "valid ascending",
			config:  CollateConfig{Count: 1000, Interval: time.Minute, Order: "ascending"},
			wantErr: false,
		},
		{
			name:    "valid descending",
			config:  CollateConfig{Count: 1, Interval: time.Second, Order: "descending"},
			wantErr: false,
		},
		{
			name:    "zero count",
			config:  CollateConfig{Count: 0, Interval: time.Minute, Order: "ascending"},
			wantErr: true,
		},
		{
			name:    "negative count",
			config:  CollateConfig{Count: -1, Interval: time.Minute, Order: "ascending"},
			wantErr: true,
		},
		{
			name:    "zero interval",
			config:  CollateConfig{Count: 1000, Interval: 0, Order: "ascending"},
			wantErr: true,
		},
		{
			name:    "invalid order",
			config:  CollateConfig{Count: 1000, Interval: time.Minute, Order: "shuffled"},
			wantErr: true,
		},
		{
			name:    "empty order",
			config:  CollateConfig{Count: 1000, Interval: time.Minute, Order: ""},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestS3Config_Validate(t *testing.T) {
	config := S3Config{Bucket: "collated-batches", Region: "us-east-1"}
	if err := config.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	config.Bucket = ""
	if err := config.Validate(); err == nil {
		t.Error("expected error for missing bucket")
	}
}

func TestAzureConfig_Validate(t *testing.T) {
	config := AzureConfig{AccountName: "collatestore", Container: "batches"}
	if err := config.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	config.Container = ""
	if err := config.Validate(); err == nil {
		t.Error("expected error for missing container")
	}
}

func TestFileConfig_Validate(t *testing.T) {
	config := FileConfig{BasePath: "/data/batches"}
	if err := config.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	config.BasePath = ""
	if err := config.Validate(); err == nil {
		t.Error("expected error for missing base path")
	}
}

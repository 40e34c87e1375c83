package kafka

import (
	"testing"
)

func TestXDGSCRAMClient_Begin(t *testing.T) {
	tests := []struct {
		name   string
		client *XDGSCRAMClient
	}{
		{"sha256", &XDGSCRAMClient{HashGeneratorFcn: SHA256()}},
		{"sha512", &XDGSCRAMClient{HashGeneratorFcn: SHA512()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.client.Begin("user", "password", ""); err != nil {
				t.Fatalf("Begin() error = %v", err)
			}
			if tt.client.Client == nil {
				t.Error("expected non-nil SCRAM client after Begin")
			}
			if tt.client.ClientConversation == nil {
				t.Error("expected non-nil conversation after Begin")
			}
			if tt.client.Done() {
				t.Error("conversation should not be done before any step")
			}
		})
	}
}

func TestXDGSCRAMClient_Step(t *testing.T) {
	client := &XDGSCRAMClient{HashGeneratorFcn: SHA256()}
	if err := client.Begin("user", "password", ""); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	// First step produces the client-first message.
	response, err := client.Step("")
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if response == "" {
		t.Error("expected non-empty client-first message")
	}
}

func TestHashGenerators(t *testing.T) {
	h256 := SHA256()()
	if h256.Size() != 32 {
		t.Errorf("SHA256 hash size = %d, want 32", h256.Size())
	}

	h512 := SHA512()()
	if h512.Size() != 64 {
		t.Errorf("SHA512 hash size = %d, want 64", h512.Size())
	}
}

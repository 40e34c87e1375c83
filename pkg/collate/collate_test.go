package collate

import (
	"testing"

	"github.com/Touchkin/eventcollate/pkg/event"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		input   string
		want    Order
		wantErr bool
	}{
		{input: "ascending", want: OrderAscending},
		{input: "descending", want: OrderDescending},
		{input: "", wantErr: true},
		{input: "asc", wantErr: true},
		{input: "Ascending", wantErr: true},
		{input: "random", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOrder(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseOrder(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOrder(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseOrder(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBatch_Len(t *testing.T) {
	var nilBatch *Batch
	if got := nilBatch.Len(); got != 0 {
		t.Errorf("nil batch Len() = %d, want 0", got)
	}

	empty := &Batch{}
	if got := empty.Len(); got != 0 {
		t.Errorf("empty batch Len() = %d, want 0", got)
	}

	b := &Batch{
		Records: []event.Record{
			{Event: &event.Event{ID: "a"}},
			{Event: &event.Event{ID: "b"}},
		},
	}
	if got := b.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

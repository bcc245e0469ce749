package utils

import (
	"testing"
)

func TestNewVideoID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewVideoID()
		if err != nil {
			t.Fatalf("Failed to generate id: %v", err)
		}
		if len(id) != 12 {
			t.Errorf("Expected 12-char id, got %q", id)
		}
		for _, c := range id {
			if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
				t.Errorf("Non-alphanumeric character %q in id %q", c, id)
			}
		}
		if seen[id] {
			t.Errorf("Duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestGenerateRandomHex(t *testing.T) {
	hex1, err := GenerateRandomHex(16)
	if err != nil {
		t.Fatalf("Failed to generate hex: %v", err)
	}
	if len(hex1) != 32 {
		t.Errorf("Expected 32 hex chars, got %d", len(hex1))
	}
	hex2, _ := GenerateRandomHex(16)
	if hex1 == hex2 {
		t.Error("Two random values were identical")
	}
}

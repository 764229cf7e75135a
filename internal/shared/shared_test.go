package shared

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestShared(t *testing.T) {
	t.Run("GenerateID", func(t *testing.T) {
		id := GenerateID()
		if id == "" {
			t.Fatal("expected a non-empty identifier")
		}

		if id == GenerateID() {
			t.Error("expected successive identifiers to differ")
		}
	})

	t.Run("GenerateState", func(t *testing.T) {
		state, err := GenerateState()
		if err != nil {
			t.Fatalf("failed to generate state: %v", err)
		}

		if len(state) == 0 {
			t.Fatal("expected a non-empty state string")
		}

		other, err := GenerateState()
		if err != nil {
			t.Fatalf("failed to generate second state: %v", err)
		}
		if state == other {
			t.Error("expected successive states to differ")
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		payload := map[string]any{"name": "sift", "count": 3}

		t.Run("Compact", func(t *testing.T) {
			data, err := MarshalJSON(payload, false)
			if err != nil {
				t.Fatalf("failed to marshal: %v", err)
			}

			if strings.Contains(string(data), "\n") {
				t.Error("compact output should not contain newlines")
			}

			var decoded map[string]any
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("output is not valid JSON: %v", err)
			}
		})

		t.Run("Pretty", func(t *testing.T) {
			data, err := MarshalJSON(payload, true)
			if err != nil {
				t.Fatalf("failed to marshal: %v", err)
			}

			if !strings.Contains(string(data), "\n") {
				t.Error("pretty output should be indented")
			}
		})
	})
}

package engine

import "testing"

// findStep returns the named step from a result slice.
func findStep(t *testing.T, steps []Step, name string) Step {
	t.Helper()
	for _, step := range steps {
		if step.Name == name {
			return step
		}
	}
	t.Fatalf("no %q step in %v", name, steps)
	return Step{}
}

func TestValidateAttributes(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name       string
		properties string
		step       string
		wantPassed bool
	}{
		{"identifier present", `{"plotId": "a", "producerCountry": "BR"}`, StepIdentifier, true},
		{"secondary identifier", `{"id": "a", "producerCountry": "BR"}`, StepIdentifier, true},
		{"identifier missing", `{"producerCountry": "BR"}`, StepIdentifier, false},

		{"area absent passes", `{"plotId": "a"}`, StepDeclaredArea, true},
		{"area positive", `{"plotId": "a", "area": 1.5}`, StepDeclaredArea, true},
		{"area zero invalid", `{"plotId": "a", "area": 0}`, StepDeclaredArea, false},
		{"area negative invalid", `{"plotId": "a", "area": -2}`, StepDeclaredArea, false},
		{"area numeric string", `{"plotId": "a", "area": "3.25"}`, StepDeclaredArea, true},
		{"area not a number", `{"plotId": "a", "area": "big"}`, StepDeclaredArea, false},

		{"country uppercase", `{"plotId": "a", "producerCountry": "BR"}`, StepProducerCountry, true},
		{"country lowercase accepted", `{"plotId": "a", "producerCountry": "us"}`, StepProducerCountry, true},
		{"country whitespace trimmed", `{"plotId": "a", "producerCountry": " de "}`, StepProducerCountry, true},
		{"country unknown", `{"plotId": "a", "producerCountry": "XX"}`, StepProducerCountry, false},
		{"country missing", `{"plotId": "a"}`, StepProducerCountry, false},
		{"country not a string", `{"plotId": "a", "producerCountry": 55}`, StepProducerCountry, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feature := parseOne(t, `{
				"type": "Feature",
				"geometry": {"type": "Point", "coordinates": [0, 0]},
				"properties": `+tt.properties+`
			}`)
			steps := ValidateAttributes(feature, cfg)
			if len(steps) != 3 {
				t.Fatalf("ValidateAttributes() returned %d steps, want 3", len(steps))
			}
			step := findStep(t, steps, tt.step)
			if step.Passed != tt.wantPassed {
				t.Errorf("step %q passed = %v (%s), want %v", tt.step, step.Passed, step.Message, tt.wantPassed)
			}
			if !step.Passed && step.Message == "" {
				t.Errorf("failed step %q has empty message", tt.step)
			}
		})
	}
}

func TestDeclaredArea(t *testing.T) {
	tests := []struct {
		name       string
		properties string
		want       float64
		wantOK     bool
	}{
		{"present", `{"area": 2.5}`, 2.5, true},
		{"absent", `{}`, 0, false},
		{"zero unusable", `{"area": 0}`, 0, false},
		{"string coerced", `{"area": "4"}`, 4, true},
		{"case-insensitive key", `{"Area": 1}`, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feature := parseOne(t, `{
				"type": "Feature",
				"geometry": {"type": "Point", "coordinates": [0, 0]},
				"properties": `+tt.properties+`
			}`)
			got, ok := declaredArea(feature)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("declaredArea() = %v, %v, want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

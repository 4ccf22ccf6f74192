package result

import "testing"

func TestQuality_StringValues(t *testing.T) {
	tests := []struct {
		name     string
		quality  Quality
		expected string
	}{
		{"Full quality", QualityFull, "full"},
		{"Partial quality", QualityPartial, "partial"},
		{"Empty quality", QualityEmpty, "empty"},
		{"Suspect quality", QualitySuspect, "suspect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.quality) != tt.expected {
				t.Errorf("Quality = %v, want %v", tt.quality, tt.expected)
			}
		})
	}
}

func TestNewValidator_HasDefaultRules(t *testing.T) {
	v := NewValidator()
	if len(v.rules) < 2 {
		t.Errorf("expected at least 2 default rules, got %d", len(v.rules))
	}
}

func TestValidator_WithRules_Appends(t *testing.T) {
	v := NewValidator()
	initial := len(v.rules)

	v = v.WithRules(func(output map[string]any) (Quality, float64, []string) {
		return QualityFull, 1.0, nil
	})
	if len(v.rules) != initial+1 {
		t.Errorf("expected %d rules after WithRules, got %d", initial+1, len(v.rules))
	}
}

func TestValidator_Validate_FullQuality(t *testing.T) {
	v := NewValidator()
	output := map[string]any{
		"results":     []any{map[string]any{"id": 1}},
		"total":       1,
		"processed":   1,
		"duration_ms": 1500,
	}

	got := v.Validate(output)

	if got.Quality != QualityFull {
		t.Errorf("got quality %v, want full", got.Quality)
	}
	if got.Confidence != 1.0 {
		t.Errorf("got confidence %v, want 1.0", got.Confidence)
	}
	if len(got.Warnings) > 0 {
		t.Errorf("expected no warnings, got %v", got.Warnings)
	}
	if len(got.Suggestions) > 0 {
		t.Errorf("expected no suggestions for full quality, got %v", got.Suggestions)
	}
}

func TestValidator_Validate_EmptyResultsDowngrades(t *testing.T) {
	v := NewValidator()
	output := map[string]any{"results": []any{}, "duration_ms": 1000}

	got := v.Validate(output)

	if got.Quality != QualityEmpty {
		t.Errorf("got quality %v, want empty", got.Quality)
	}
	if got.Confidence >= 1.0 {
		t.Errorf("expected confidence below 1.0, got %v", got.Confidence)
	}
	if len(got.Warnings) == 0 {
		t.Errorf("expected a warning for empty results")
	}
	if len(got.Suggestions) == 0 {
		t.Errorf("expected suggestions for empty quality")
	}
}

func TestValidator_Validate_EmptyItemsDowngrades(t *testing.T) {
	v := NewValidator()
	output := map[string]any{"items": []any{}}

	got := v.Validate(output)
	if got.Quality != QualityEmpty {
		t.Errorf("got quality %v, want empty", got.Quality)
	}
}

func TestValidator_Validate_PartialWhenNoneProcessed(t *testing.T) {
	v := NewValidator()
	output := map[string]any{"total": 5, "processed": 0}

	got := v.Validate(output)
	if got.Quality != QualityPartial {
		t.Errorf("got quality %v, want partial", got.Quality)
	}
	if len(got.Warnings) == 0 {
		t.Errorf("expected a warning when nothing was processed")
	}
}

func TestValidator_Validate_SuspectZeroDurationWithNonzeroTotal(t *testing.T) {
	v := NewValidator()
	output := map[string]any{"total": 10, "duration_ms": 0}

	got := v.Validate(output)
	if got.Quality != QualitySuspect {
		t.Errorf("got quality %v, want suspect", got.Quality)
	}
	if got.Confidence >= 0.5 {
		t.Errorf("expected low confidence, got %v", got.Confidence)
	}
}

func TestValidator_Validate_SuspectNegativeCount(t *testing.T) {
	v := NewValidator()
	output := map[string]any{"count": -1}

	got := v.Validate(output)
	if got.Quality != QualitySuspect {
		t.Errorf("got quality %v, want suspect", got.Quality)
	}
}

func TestValidator_CustomRules_Override(t *testing.T) {
	v := NewValidator()
	v = v.WithRules(func(output map[string]any) (Quality, float64, []string) {
		if _, ok := output["required_field"]; !ok {
			return QualitySuspect, 0.5, []string{"missing required_field"}
		}
		return QualityFull, 1.0, nil
	})

	withoutField := v.Validate(map[string]any{"results": []any{1}})
	if withoutField.Quality != QualitySuspect {
		t.Errorf("got quality %v, want suspect when required_field missing", withoutField.Quality)
	}

	withField := v.Validate(map[string]any{"results": []any{1}, "required_field": "x"})
	if withField.Quality != QualityFull {
		t.Errorf("got quality %v, want full when required_field present", withField.Quality)
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected bool
	}{
		{"nil value", nil, true},
		{"empty slice", []any{}, true},
		{"empty array", [0]int{}, true},
		{"empty map", map[string]any{}, true},
		{"empty string", "", true},
		{"non-empty slice", []any{1}, false},
		{"non-empty map", map[string]any{"key": "value"}, false},
		{"non-empty string", "hello", false},
		{"zero int", 0, false},
		{"non-zero int", 42, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEmpty(tt.value); got != tt.expected {
				t.Errorf("isEmpty(%v) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestGetNumericValue(t *testing.T) {
	tests := []struct {
		name     string
		output   map[string]any
		key      string
		wantVal  float64
		wantOk   bool
	}{
		{"int value", map[string]any{"key": 42}, "key", 42.0, true},
		{"int64 value", map[string]any{"key": int64(1000)}, "key", 1000.0, true},
		{"float64 value", map[string]any{"key": 3.14}, "key", 3.14, true},
		{"float32 value", map[string]any{"key": float32(2.71)}, "key", float64(float32(2.71)), true},
		{"missing key", map[string]any{}, "key", 0, false},
		{"string value", map[string]any{"key": "nope"}, "key", 0, false},
		{"nil value", map[string]any{"key": nil}, "key", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			val, ok := getNumericValue(tt.output, tt.key)
			if ok != tt.wantOk {
				t.Errorf("getNumericValue() ok = %v, want %v", ok, tt.wantOk)
			}
			if ok && val != tt.wantVal {
				t.Errorf("getNumericValue() value = %v, want %v", val, tt.wantVal)
			}
		})
	}
}

func TestSuggestionsForQuality(t *testing.T) {
	tests := []struct {
		name    string
		quality Quality
		want    bool
	}{
		{"full has none", QualityFull, false},
		{"empty has suggestions", QualityEmpty, true},
		{"partial has suggestions", QualityPartial, true},
		{"suspect has suggestions", QualitySuspect, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(suggestionsForQuality(tt.quality)) > 0; got != tt.want {
				t.Errorf("suggestionsForQuality(%v) has suggestions = %v, want %v", tt.quality, got, tt.want)
			}
		})
	}
}

func TestWorseThan(t *testing.T) {
	tests := []struct {
		name      string
		current   Quality
		candidate Quality
		want      bool
	}{
		{"full to partial", QualityFull, QualityPartial, true},
		{"full to empty", QualityFull, QualityEmpty, true},
		{"full to suspect", QualityFull, QualitySuspect, true},
		{"partial to full", QualityPartial, QualityFull, false},
		{"full to full", QualityFull, QualityFull, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := worseThan(tt.candidate, tt.current); got != tt.want {
				t.Errorf("worseThan(%v, %v) = %v, want %v", tt.candidate, tt.current, got, tt.want)
			}
		})
	}
}

func TestValidator_ConcurrentValidation(t *testing.T) {
	v := NewValidator()
	output := map[string]any{"results": []any{1, 2, 3}, "duration_ms": 500}

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			v.Validate(output)
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}

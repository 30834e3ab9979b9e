package validation

import (
	"testing"
)

func TestClockTimeValidator(t *testing.T) {
	t.Parallel()

	type subject struct {
		Value string `validate:"clock_time"`
	}

	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"midnight", "00:00", true},
		{"morning", "09:30", true},
		{"last minute", "23:59", true},
		{"hour out of range", "24:00", false},
		{"minute out of range", "12:60", false},
		{"missing leading zero", "9:30", false},
		{"with seconds", "09:30:00", false},
		{"empty", "", false},
		{"garbage", "noon", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Validate.Struct(subject{Value: tt.value})
			if tt.valid && err != nil {
				t.Errorf("expected %q to be valid, got %v", tt.value, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("expected %q to be invalid", tt.value)
			}
		})
	}
}

func TestValidatePriority(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"low", "medium", "high"} {
		if err := ValidatePriority(p); err != nil {
			t.Errorf("ValidatePriority(%q) = %v, want nil", p, err)
		}
	}
	for _, p := range []string{"", "urgent", "HIGH", "1"} {
		if err := ValidatePriority(p); err == nil {
			t.Errorf("ValidatePriority(%q) = nil, want error", p)
		}
	}
}

func TestValidateClockTime(t *testing.T) {
	t.Parallel()

	if err := ValidateClockTime("07:15"); err != nil {
		t.Errorf("ValidateClockTime(07:15) = %v, want nil", err)
	}
	if err := ValidateClockTime("25:99"); err == nil {
		t.Error("ValidateClockTime(25:99) = nil, want error")
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  buy milk  ", "buy milk"},
		{"strips control characters", "buy\x00 milk\x07", "buy milk"},
		{"keeps newline and tab", "line one\n\tline two", "line one\n\tline two"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

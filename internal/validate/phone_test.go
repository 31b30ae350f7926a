package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare 10 digits", "5551234567", "+15551234567", true},
		{"11 digits with country code", "15551234567", "+15551234567", true},
		{"already normalized", "+15551234567", "+15551234567", true},
		{"punctuation", "(555) 123-4567", "+15551234567", true},
		{"dots and spaces", " 555.123.4567 ", "+15551234567", true},
		{"exponent notation", "5.551234567e+09", "+15551234567", true},
		{"plus with punctuation", "+1 (555) 123-4567", "+15551234567", true},
		{"too short", "12345", "", false},
		{"9 digits", "555123456", "", false},
		{"11 digits wrong country digit", "25551234567", "", false},
		{"plus but too short", "+123456789", "", false},
		{"empty", "", "", false},
		{"letters", "call me", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePhone(tt.in, "1")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	inputs := []string{"5551234567", "15551234567", "(555) 123-4567", "+447911123456"}
	for _, in := range inputs {
		once, ok := NormalizePhone(in, "1")
		if !ok {
			t.Fatalf("NormalizePhone(%q) unexpectedly invalid", in)
		}
		twice, ok := NormalizePhone(once, "1")
		assert.True(t, ok)
		assert.Equal(t, once, twice, "normalize should be idempotent for %q", in)
	}
}

func TestParseServiceDate(t *testing.T) {
	t.Run("serial date", func(t *testing.T) {
		// 2024-01-15 is serial 45306 from the 1899-12-30 epoch.
		got, err := ParseServiceDate("45306")
		assert.NoError(t, err)
		assert.Equal(t, "2024-01-15", got.Format("2006-01-02"))
	})

	t.Run("iso date", func(t *testing.T) {
		got, err := ParseServiceDate("2025-03-02")
		assert.NoError(t, err)
		assert.Equal(t, "March 2, 2025", got.Format("January 2, 2006"))
	})

	t.Run("us date", func(t *testing.T) {
		got, err := ParseServiceDate("3/2/2025")
		assert.NoError(t, err)
		assert.Equal(t, "2025-03-02", got.Format("2006-01-02"))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseServiceDate("next tuesday")
		assert.Error(t, err)
	})

	t.Run("small number is not a date", func(t *testing.T) {
		_, err := ParseServiceDate("7")
		assert.Error(t, err)
	})
}

package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "correct horse", false},
		{"Short", "abc", false},
		{"Exactly Max Length", strings.Repeat("p", 72), false},
		{"Multibyte Over Max", strings.Repeat("é", 37), true},
		{"Too Long", strings.Repeat("p", 73), true},
		{"Blank", "          ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "video_fan-42", false},
		{"Too Short", "ab", true},
		{"Too Long", strings.Repeat("a", 31), true},
		{"Spaces", "video fan", true},
		{"Leading Underscore", "_fan", true},
		{"Trailing Hyphen", "fan-", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEmail("someone@example.com"))
	assert.Error(t, ValidateEmail("someone@"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@x.io"))
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "alice", NormalizeUsername("  Alice "))
	assert.Equal(t, "alice@example.com", NormalizeEmail("Alice@Example.COM "))
}

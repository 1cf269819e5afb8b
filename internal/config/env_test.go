package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("POSTAL_TEST_STR", "hello")
	assert.Equal(t, "hello", GetEnv("POSTAL_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", GetEnv("POSTAL_TEST_STR_MISSING", "fallback"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("POSTAL_TEST_INT", "42")
	assert.Equal(t, 42, GetEnvInt("POSTAL_TEST_INT", 7))

	t.Setenv("POSTAL_TEST_INT", "not a number")
	assert.Equal(t, 7, GetEnvInt("POSTAL_TEST_INT", 7))

	assert.Equal(t, 7, GetEnvInt("POSTAL_TEST_INT_MISSING", 7))
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("POSTAL_TEST_FLOAT", "2.5")
	assert.Equal(t, 2.5, GetEnvFloat("POSTAL_TEST_FLOAT", 1.0))

	t.Setenv("POSTAL_TEST_FLOAT", "nope")
	assert.Equal(t, 1.0, GetEnvFloat("POSTAL_TEST_FLOAT", 1.0))
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"on", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{"off", false},
		{"OFF", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("POSTAL_TEST_BOOL", tt.value)
			// Default is the opposite of the expectation, so a hit on the
			// default branch fails the case.
			assert.Equal(t, tt.want, GetEnvBool("POSTAL_TEST_BOOL", !tt.want))
		})
	}
}

func TestGetEnvBoolFallsBack(t *testing.T) {
	assert.True(t, GetEnvBool("POSTAL_TEST_BOOL_MISSING", true))
	assert.False(t, GetEnvBool("POSTAL_TEST_BOOL_MISSING", false))

	t.Setenv("POSTAL_TEST_BOOL", "maybe")
	assert.True(t, GetEnvBool("POSTAL_TEST_BOOL", true))
	assert.False(t, GetEnvBool("POSTAL_TEST_BOOL", false))
}

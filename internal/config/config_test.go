package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestSetOverwriteFiles(t *testing.T) {
	// Save the original value to restore after the test
	originalValue := OverwriteFiles

	testCases := []struct {
		name     string
		input    bool
		expected bool
	}{
		{
			name:     "set to true",
			input:    true,
			expected: true,
		},
		{
			name:     "set to false",
			input:    false,
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Set the value
			SetOverwriteFiles(tc.input)

			// Check that the global variable was updated
			assert.Equal(t, tc.expected, OverwriteFiles)
		})
	}

	// Restore the original value
	OverwriteFiles = originalValue
}

func TestSetUpdateImages(t *testing.T) {
	originalValue := UpdateImages

	SetUpdateImages(true)
	assert.True(t, UpdateImages)

	SetUpdateImages(false)
	assert.False(t, UpdateImages)

	UpdateImages = originalValue
}

func TestInitConfigReadsCredentials(t *testing.T) {
	originalEmail := ManaPoolEmail
	originalToken := ManaPoolToken
	t.Cleanup(func() {
		ManaPoolEmail = originalEmail
		ManaPoolToken = originalToken
		viper.Reset()
	})

	viper.Reset()
	viper.Set("manapool.email", "seller@example.com")
	viper.Set("manapool.access_token", "token-123")

	InitConfig()

	assert.Equal(t, "seller@example.com", ManaPoolEmail)
	assert.Equal(t, "token-123", ManaPoolToken)
	assert.Equal(t, "./data/csv/", viper.GetString("output.csvdir"))
}

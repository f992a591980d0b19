package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashSecret(t *testing.T) {
	hashService := &HashService{}

	tests := []struct {
		name        string
		secret      string
		expectError bool
	}{
		{
			name:        "Valid Secret",
			secret:      "payout-trigger-secret",
			expectError: false,
		},
		{
			name:        "Empty Secret",
			secret:      "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hashService.HashSecret(tt.secret)

			if tt.expectError {
				assert.Error(t, err)
				assert.Empty(t, hash)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, hash)
				assert.NotEqual(t, tt.secret, hash)
			}
		})
	}
}

func TestCompareSecret(t *testing.T) {
	hashService := &HashService{}

	hash, err := hashService.HashSecret("payout-trigger-secret")
	assert.NoError(t, err)

	assert.True(t, hashService.CompareSecret(hash, "payout-trigger-secret"))
	assert.False(t, hashService.CompareSecret(hash, "wrong-secret"))
	assert.False(t, hashService.CompareSecret("not-a-hash", "payout-trigger-secret"))
}

package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"eventbooking/internal/domain"
)

func TestBcryptHasher_GenerateSalt(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	seen := make(map[string]bool)
	for range 5 {
		salt, err := h.GenerateSalt()
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9a-f]{64}$`, salt)
		assert.False(t, seen[salt], "salt repeated")
		seen[salt] = true
	}
}

func TestBcryptHasher_Compare(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	long := strings.Repeat("p", 200)

	tests := []struct {
		name      string
		password  string
		candidate string
		otherSalt bool
		wantErr   bool
	}{
		{name: "match", password: "correct horse", candidate: "correct horse"},
		{name: "wrong password", password: "correct horse", candidate: "battery staple", wantErr: true},
		{name: "wrong salt", password: "correct horse", candidate: "correct horse", otherSalt: true, wantErr: true},
		{name: "long password matches", password: long, candidate: long},
		{name: "long password differs past 72 bytes", password: long, candidate: long[:199], wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			salt, err := h.GenerateSalt()
			require.NoError(t, err)
			hash, err := h.Hash(salt, tt.password)
			require.NoError(t, err)
			require.NotContains(t, hash, tt.password)

			if tt.otherSalt {
				salt, err = h.GenerateSalt()
				require.NoError(t, err)
			}
			err = h.Compare(hash, salt, tt.candidate)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewBcryptHasher_CostFallback(t *testing.T) {
	h := NewBcryptHasher(0).(*bcryptHasher)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)

	h = NewBcryptHasher(bcrypt.MinCost + 1).(*bcryptHasher)
	assert.Equal(t, bcrypt.MinCost+1, h.cost)
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "live-relay", time.Hour)

	token, err := m.GenerateToken("user-42")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "live-relay", claims.Issuer)
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager("secret", "live-relay", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.GenerateToken("user-42")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTManager_Invalid(t *testing.T) {
	m := NewJWTManager("secret", "live-relay", time.Hour)
	other := NewJWTManager("other-secret", "live-relay", time.Hour)
	token, err := other.GenerateToken("user-42")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "空令牌", token: "", want: ErrMissingToken},
		{name: "格式错误", token: "not-a-jwt", want: ErrInvalidToken},
		{name: "签名不匹配", token: token, want: ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ValidateToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestJWTManager_WrongIssuer(t *testing.T) {
	m := NewJWTManager("secret", "live-relay", time.Hour)
	other := NewJWTManager("secret", "someone-else", time.Hour)
	token, err := other.GenerateToken("user-42")
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractToken(t *testing.T) {
	assert.Equal(t, "abc", ExtractToken("Bearer abc", "q"))
	assert.Equal(t, "q", ExtractToken("", "q"))
	assert.Equal(t, "q", ExtractToken("Basic xyz", "q"))
}

package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://cognito-idp.ap-south-1.amazonaws.com/ap-south-1_test"

type signer struct {
	key jwk.Key
	set jwk.Set
}

func newSigner(t *testing.T, kid string) *signer {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	key, err := jwk.Import(raw)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, kid))
	require.NoError(t, key.Set(jwk.AlgorithmKey, jwa.RS256()))

	pub, err := jwk.PublicKeyOf(key)
	require.NoError(t, err)

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pub))

	return &signer{key: key, set: set}
}

func (s *signer) sign(t *testing.T, build func(b *jwt.Builder) *jwt.Builder) string {
	t.Helper()

	now := time.Now()
	b := jwt.NewBuilder().
		Subject("user-1").
		Issuer(testIssuer).
		IssuedAt(now).
		Expiration(now.Add(time.Hour))
	if build != nil {
		b = build(b)
	}

	token, err := b.Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256(), s.key))
	require.NoError(t, err)

	return string(signed)
}

func TestJWKSVerifier_Verify(t *testing.T) {
	s := newSigner(t, "k1")
	verifier := NewStaticVerifier(s.set, testIssuer)

	token := s.sign(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Claim("username", "asha").Claim(groupsClaim, []string{"admin", "staff"})
	})

	principal, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", principal.UserID)
	assert.Equal(t, "asha", principal.Username)
	assert.Equal(t, []string{"admin", "staff"}, principal.Groups)
	assert.True(t, principal.InGroup("admin"))
	assert.Equal(t, "asha", principal.ActorID())
}

func TestJWKSVerifier_NoGroups(t *testing.T) {
	s := newSigner(t, "k1")
	verifier := NewStaticVerifier(s.set, testIssuer)

	principal, err := verifier.Verify(context.Background(), s.sign(t, nil))
	require.NoError(t, err)
	assert.Empty(t, principal.Groups)
	assert.False(t, principal.InGroup("admin"))
	assert.Equal(t, "user-1", principal.ActorID())
}

func TestJWKSVerifier_Rejects(t *testing.T) {
	s := newSigner(t, "k1")
	other := newSigner(t, "k2")
	verifier := NewStaticVerifier(s.set, testIssuer)

	tests := map[string]string{
		"expired": s.sign(t, func(b *jwt.Builder) *jwt.Builder {
			past := time.Now().Add(-2 * time.Hour)
			return b.IssuedAt(past).Expiration(past.Add(time.Hour))
		}),
		"wrong issuer": s.sign(t, func(b *jwt.Builder) *jwt.Builder {
			return b.Issuer("https://evil.example.com")
		}),
		"unknown key": other.sign(t, nil),
		"garbage":     "not-a-jwt",
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(context.Background(), token)
			assert.Error(t, err)
		})
	}
}

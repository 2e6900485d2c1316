package server

import (
	"context"
	"errors"
	"fmt"

	"vridhashram/pkg/types"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

const groupsClaim = "cognito:groups"

// JWKSVerifier validates Cognito access tokens against the user pool's
// published key set.
type JWKSVerifier struct {
	keys   func(ctx context.Context) (jwk.Set, error)
	issuer string
}

// NewJWKSVerifier registers the issuer's jwks.json with a refreshing cache.
func NewJWKSVerifier(ctx context.Context, issuerURL string) (*JWKSVerifier, error) {
	if issuerURL == "" {
		return nil, errors.New("issuer url is required")
	}

	cache, err := jwk.NewCache(ctx, httprc.NewClient())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", issuerURL)
	if err := cache.Register(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("failed to register %s with jwk cache: %w", jwksURL, err)
	}

	return &JWKSVerifier{
		keys: func(ctx context.Context) (jwk.Set, error) {
			return cache.Lookup(ctx, jwksURL)
		},
		issuer: issuerURL,
	}, nil
}

// NewStaticVerifier verifies against a fixed key set.
func NewStaticVerifier(set jwk.Set, issuer string) *JWKSVerifier {
	return &JWKSVerifier{
		keys: func(context.Context) (jwk.Set, error) {
			return set, nil
		},
		issuer: issuer,
	}
}

func (v *JWKSVerifier) Verify(ctx context.Context, accessToken string) (*types.Principal, error) {
	set, err := v.keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse([]byte(accessToken), opts...)
	if err != nil {
		return nil, fmt.Errorf("parse jwt: %w", err)
	}

	userID, ok := token.Subject()
	if !ok || userID == "" {
		return nil, errors.New("no subject claim in token")
	}

	principal := &types.Principal{UserID: userID}

	// username and email are optional, access tokens carry the former and
	// id tokens the latter
	_ = token.Get("username", &principal.Username)
	_ = token.Get("email", &principal.Email)

	var groups []any
	if err := token.Get(groupsClaim, &groups); err == nil {
		for _, g := range groups {
			if name, ok := g.(string); ok {
				principal.Groups = append(principal.Groups, name)
			}
		}
	}

	return principal, nil
}

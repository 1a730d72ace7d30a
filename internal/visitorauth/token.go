package visitorauth

import (
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/pagedeck/integrations/internal/serviceerr"
)

// visitorTokenTTL is the lifetime of a re-signed visitor token.
const visitorTokenTTL = 3600 * time.Second

// decodeAlgorithms are the signature algorithms accepted when parsing the
// identity provider's access token. The token is decoded, not verified; the
// provider already authenticated the request at the token-exchange level.
var decodeAlgorithms = []jose.SignatureAlgorithm{
	jose.RS256, jose.RS384, jose.RS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.PS256, jose.PS384, jose.PS512,
	jose.HS256, jose.HS384, jose.HS512,
}

// decodeClaims extracts the claims payload of an access token without
// signature verification.
func decodeClaims(rawToken string) (map[string]any, error) {
	token, err := jwt.ParseSigned(rawToken, decodeAlgorithms)
	if err != nil {
		return nil, fmt.Errorf("parsing access token: %w", err)
	}

	var claims map[string]any
	if err := token.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return nil, fmt.Errorf("decoding access token claims: %w", err)
	}

	return claims, nil
}

// resignClaims strips the provider's iat and exp claims and signs the
// remainder with the installation's key, setting a fresh one-hour expiry.
func resignClaims(claims map[string]any, signingKey string, now time.Time) (string, error) {
	if signingKey == "" {
		return "", fmt.Errorf("no signing key for installation: %w", serviceerr.ErrSigning)
	}

	resigned := make(map[string]any, len(claims))
	for name, value := range claims {
		if name == "iat" || name == "exp" {
			continue
		}
		resigned[name] = value
	}
	resigned["exp"] = now.Add(visitorTokenTTL).Unix()

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte(signingKey)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("%w: creating signer: %w", serviceerr.ErrSigning, err)
	}

	token, err := jwt.Signed(signer).Claims(resigned).Serialize()
	if err != nil {
		return "", fmt.Errorf("%w: serialising token: %w", serviceerr.ErrSigning, err)
	}

	return token, nil
}

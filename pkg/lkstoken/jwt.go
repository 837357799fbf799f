package lkstoken

import (
	"errors"
	"maps"

	"github.com/golang-jwt/jwt/v5"
)

// ParseUnverified never looks at the signature, so the parser needs no
// key func or method whitelist.
var parser = jwt.NewParser()

// decodeJWT reads the login token. The portal nests the user under "usr"
// ({"usr": {"name", "id", "alias"}}); top-level name/id/group claims are
// accepted as a fallback.
func decodeJWT(raw RawToken) (TokenInfo, error) {
	claims := jwt.MapClaims{}

	_, _, err := parser.ParseUnverified(raw.Value, claims)
	// An unknown "alg" makes the token unverifiable but the claims are
	// already decoded, which is all we need.
	if err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return TokenInfo{}, malformed(raw.Name, "", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return TokenInfo{}, malformed(raw.Name, "exp", err)
	}
	if exp == nil {
		return TokenInfo{}, missingClaim(raw.Name, "exp")
	}

	usr, _ := claims["usr"].(map[string]any)

	return TokenInfo{
		Source:     raw.Name,
		Name:       firstString(lookup(usr, "name"), claims["name"]),
		Expiration: exp.UTC(),
		StudentID:  firstString(lookup(usr, "id"), claims["id"]),
		Group:      firstString(lookup(usr, "alias"), lookup(usr, "group"), claims["group"]),
		Raw:        raw.Value,
		Claims:     maps.Clone(map[string]any(claims)),
	}, nil
}

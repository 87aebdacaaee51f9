// Package token reads expiry information from the backend's JWTs.
//
// The CLI never verifies signatures; the backend does that on every call. The
// payload is decoded only to decide when to refresh, and anything that cannot
// be read is treated as already expiring.
package token

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeExpiry returns the exp claim of tok in Unix seconds.
// Only the second dot-separated segment is read: the header and any further
// segments are ignored. ok is false when that segment is missing, is not
// base64url JSON, or carries no numeric exp claim.
func DecodeExpiry(tok string) (exp int64, ok bool) {
	parts := strings.Split(tok, ".")
	if len(parts) < 2 {
		return 0, false
	}
	payload, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return 0, false
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return 0, false
	}
	nd, err := claims.GetExpirationTime()
	if err != nil || nd == nil {
		return 0, false
	}
	return nd.Unix(), true
}

// IsExpiringWithin reports whether tok expires within threshold of now.
// A token whose expiry cannot be read always counts as expiring.
func IsExpiringWithin(tok string, threshold time.Duration, now time.Time) bool {
	exp, ok := DecodeExpiry(tok)
	if !ok {
		return true
	}
	return exp-now.Unix() <= int64(threshold/time.Second)
}

// Remaining returns how long tok stays valid after now. It is negative for
// tokens that have already expired.
func Remaining(tok string, now time.Time) (time.Duration, bool) {
	exp, ok := DecodeExpiry(tok)
	if !ok {
		return 0, false
	}
	return time.Duration(exp-now.Unix()) * time.Second, true
}

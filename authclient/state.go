package authclient

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/pkg/errors"
)

// GenerateState mints a random state parameter for CSRF protection of the
// authorization redirect.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "[GenerateState] read random bytes")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

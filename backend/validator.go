package backend

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CredentialValidator confirms that supplied credentials actually work
// before the gateway trusts them with a session.
type CredentialValidator interface {
	Validate(ctx context.Context, creds Credentials) error
}

// LiveValidator validates credentials with a live round trip: it builds a
// fresh client, performs the full credential exchange and follows it with a
// trivial read (table enumeration). Any failure is reported back to the
// submission handler so the user can retry.
type LiveValidator struct {
	factory Factory
}

var _ CredentialValidator = (*LiveValidator)(nil)

func NewLiveValidator(factory Factory) *LiveValidator {
	return &LiveValidator{factory: factory}
}

func (v *LiveValidator) Validate(ctx context.Context, creds Credentials) error {
	if !creds.Complete() {
		return errors.New("[LiveValidator.Validate] incomplete credentials")
	}

	client := v.factory(creds)
	if _, err := client.ListTables(ctx); err != nil {
		log.Debug().Str("server", creds.ServerURL).Err(err).Msg("credential validation failed")
		return errors.Wrap(err, "[LiveValidator.Validate] connectivity test")
	}
	return nil
}

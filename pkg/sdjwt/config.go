package sdjwt

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"github.com/nordicid/credcore/pkg/digest"
)

// Options configures the engine-wide defaults an issuer applies when
// none are given explicitly at the call site.
type Options struct {
	// DigestAlg is written to "_sd_alg" on issuance.
	DigestAlg digest.Alg `default:"sha-256" validate:"required,oneof=sha-256 sha-384 sha-512"`
	// SaltSizeBits is the size of a fresh disclosure salt.
	SaltSizeBits int `default:"128" validate:"required,min=8"`
	// IssuerAlg is the JOSE algorithm identifier for the issuer-signed JWT.
	IssuerAlg string `default:"ES256" validate:"required"`
	// KBAlg is the JOSE algorithm identifier for KB-JWTs.
	KBAlg string `default:"ES256" validate:"required"`
	// IncludeX5c controls whether a supplied certificate chain is
	// written to the issuer JWT header's x5c field.
	IncludeX5c bool `default:"false"`
}

var validate = validator.New()

// NewOptions returns Options populated with their documented defaults.
// Overrides may be applied to the returned value before calling
// Validate.
func NewOptions() (Options, error) {
	var o Options
	if err := defaults.Set(&o); err != nil {
		return Options{}, fmt.Errorf("sdjwt: applying option defaults: %w", err)
	}
	return o, nil
}

// Validate reports whether o satisfies its field constraints.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("sdjwt: invalid options: %w", err)
	}
	if o.SaltSizeBits%8 != 0 {
		return fmt.Errorf("sdjwt: invalid options: SaltSizeBits must be a multiple of 8")
	}
	return nil
}

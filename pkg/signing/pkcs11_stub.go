//go:build !pkcs11

package signing

import (
	"context"
	"errors"
)

// HSMConfig names the PKCS#11 module and key an issuer's signing key
// lives behind.
type HSMConfig struct {
	ModulePath string
	SlotID     uint
	PIN        string
	KeyLabel   string
	KeyID      string
}

// HSMSigner is a stub when the binary was built without -tags=pkcs11.
type HSMSigner struct{}

// ErrHSMNotSupported is returned by NewHSMSigner and HSMSigner.Sign when
// PKCS#11 support was not compiled in. The other stub methods return
// zero values.
var ErrHSMNotSupported = errors.New("signing: PKCS#11 support not compiled in; rebuild with -tags=pkcs11")

// NewHSMSigner always fails in a build without PKCS#11 support.
func NewHSMSigner(cfg *HSMConfig) (*HSMSigner, error) {
	return nil, ErrHSMNotSupported
}

func (s *HSMSigner) Sign(ctx context.Context, data []byte) ([]byte, error) {
	return nil, ErrHSMNotSupported
}

func (s *HSMSigner) Algorithm() string { return "" }

func (s *HSMSigner) KeyID() string { return "" }

func (s *HSMSigner) PublicKey() any { return nil }

func (s *HSMSigner) Close() error { return nil }

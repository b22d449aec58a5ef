//go:build pkcs11

package signing

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"
	"math/big"

	"github.com/miekg/pkcs11"
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

// HSMSigner signs with a key held inside a PKCS#11 token, so the
// issuer's private key material never enters process memory.
type HSMSigner struct {
	ctx        *pkcs11.Ctx
	session    pkcs11.SessionHandle
	privateKey pkcs11.ObjectHandle
	publicKey  any
	algorithm  string
	keyID      string
	keyType    uint
}

// NewHSMSigner opens a session against the module named in cfg, logs
// in, and locates the key pair labeled cfg.KeyLabel.
func NewHSMSigner(cfg *HSMConfig) (*HSMSigner, error) {
	ctx := pkcs11.New(cfg.ModulePath)
	if ctx == nil {
		return nil, fmt.Errorf("signing: loading PKCS#11 module %q", cfg.ModulePath)
	}
	if err := ctx.Initialize(); err != nil {
		return nil, fmt.Errorf("signing: initializing PKCS#11: %w", err)
	}
	session, err := ctx.OpenSession(cfg.SlotID, pkcs11.CKF_SERIAL_SESSION)
	if err != nil {
		ctx.Finalize()
		return nil, fmt.Errorf("signing: opening PKCS#11 session: %w", err)
	}
	if err := ctx.Login(session, pkcs11.CKU_USER, cfg.PIN); err != nil {
		ctx.CloseSession(session)
		ctx.Finalize()
		return nil, fmt.Errorf("signing: PKCS#11 login: %w", err)
	}

	s := &HSMSigner{ctx: ctx, session: session, keyID: cfg.KeyID}
	if err := s.findKey(cfg.KeyLabel); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *HSMSigner) findKey(label string) error {
	template := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PRIVATE_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, label),
	}
	if err := s.ctx.FindObjectsInit(s.session, template); err != nil {
		return fmt.Errorf("signing: PKCS#11 find objects init: %w", err)
	}
	objs, _, err := s.ctx.FindObjects(s.session, 1)
	s.ctx.FindObjectsFinal(s.session)
	if err != nil {
		return fmt.Errorf("signing: PKCS#11 find objects: %w", err)
	}
	if len(objs) == 0 {
		return fmt.Errorf("signing: private key %q not found on token", label)
	}
	s.privateKey = objs[0]

	attrs, err := s.ctx.GetAttributeValue(s.session, s.privateKey, []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, nil),
	})
	if err != nil {
		return fmt.Errorf("signing: reading PKCS#11 key type: %w", err)
	}
	s.keyType = bytesToUint(attrs[0].Value)

	return s.extractPublicKey(label)
}

func (s *HSMSigner) extractPublicKey(label string) error {
	template := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PUBLIC_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, label),
	}
	if err := s.ctx.FindObjectsInit(s.session, template); err != nil {
		return fmt.Errorf("signing: PKCS#11 find public key init: %w", err)
	}
	objs, _, err := s.ctx.FindObjects(s.session, 1)
	s.ctx.FindObjectsFinal(s.session)
	if err != nil {
		return fmt.Errorf("signing: PKCS#11 find public key: %w", err)
	}
	if len(objs) == 0 {
		return fmt.Errorf("signing: public key %q not found on token", label)
	}

	switch s.keyType {
	case pkcs11.CKK_RSA:
		return s.extractRSAPublicKey(objs[0])
	case pkcs11.CKK_EC:
		return s.extractECPublicKey(objs[0])
	default:
		return fmt.Errorf("signing: unsupported PKCS#11 key type %d", s.keyType)
	}
}

func (s *HSMSigner) extractRSAPublicKey(handle pkcs11.ObjectHandle) error {
	attrs, err := s.ctx.GetAttributeValue(s.session, handle, []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_MODULUS, nil),
		pkcs11.NewAttribute(pkcs11.CKA_PUBLIC_EXPONENT, nil),
	})
	if err != nil {
		return fmt.Errorf("signing: reading RSA public key attributes: %w", err)
	}
	n := new(big.Int).SetBytes(attrs[0].Value)
	e := int(new(big.Int).SetBytes(attrs[1].Value).Int64())
	s.publicKey = &rsa.PublicKey{N: n, E: e}
	s.algorithm = rsaAlgorithmForBitLen(n.BitLen())
	return nil
}

func (s *HSMSigner) extractECPublicKey(handle pkcs11.ObjectHandle) error {
	attrs, err := s.ctx.GetAttributeValue(s.session, handle, []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_EC_PARAMS, nil),
		pkcs11.NewAttribute(pkcs11.CKA_EC_POINT, nil),
	})
	if err != nil {
		return fmt.Errorf("signing: reading EC public key attributes: %w", err)
	}
	curve, err := parseCurveOID(attrs[0].Value)
	if err != nil {
		return err
	}

	point := attrs[1].Value
	if len(point) > 2 && point[0] == 0x04 && point[1] == byte(len(point)-2) {
		point = point[2:] // unwrap an outer DER OCTET STRING tag
	}
	if len(point) == 0 || point[0] != 0x04 {
		return fmt.Errorf("signing: EC point is not in uncompressed form")
	}
	keyLen := (curve.Params().BitSize + 7) / 8
	if len(point) != 1+2*keyLen {
		return fmt.Errorf("signing: EC point has wrong length for curve")
	}
	x := new(big.Int).SetBytes(point[1 : 1+keyLen])
	y := new(big.Int).SetBytes(point[1+keyLen:])
	s.publicKey = &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	s.algorithm = ecdsaAlgorithmForBitSize(curve.Params().BitSize)
	return nil
}

// Sign implements Signer, delegating the hash-and-sign operation to
// the token.
func (s *HSMSigner) Sign(ctx context.Context, data []byte) ([]byte, error) {
	var mechanism *pkcs11.Mechanism
	var hash crypto.Hash
	switch s.keyType {
	case pkcs11.CKK_RSA:
		mechanism, hash = s.rsaMechanism()
	case pkcs11.CKK_EC:
		mechanism, hash = s.ecdsaMechanism()
	default:
		return nil, fmt.Errorf("signing: unsupported PKCS#11 key type %d", s.keyType)
	}

	h := hash.New()
	h.Write(data)
	hashed := h.Sum(nil)

	if err := s.ctx.SignInit(s.session, []*pkcs11.Mechanism{mechanism}, s.privateKey); err != nil {
		return nil, fmt.Errorf("signing: PKCS#11 sign init: %w", err)
	}
	sig, err := s.ctx.Sign(s.session, hashed)
	if err != nil {
		return nil, fmt.Errorf("signing: PKCS#11 sign: %w", err)
	}
	return sig, nil
}

// Algorithm implements Signer.
func (s *HSMSigner) Algorithm() string { return s.algorithm }

// KeyID implements Signer.
func (s *HSMSigner) KeyID() string { return s.keyID }

// PublicKey implements Signer.
func (s *HSMSigner) PublicKey() any { return s.publicKey }

// Close logs out of and finalizes the PKCS#11 session.
func (s *HSMSigner) Close() error {
	if s.ctx != nil {
		s.ctx.Logout(s.session)
		s.ctx.CloseSession(s.session)
		s.ctx.Finalize()
	}
	return nil
}

func (s *HSMSigner) rsaMechanism() (*pkcs11.Mechanism, crypto.Hash) {
	switch s.algorithm {
	case "RS384":
		return pkcs11.NewMechanism(pkcs11.CKM_SHA384_RSA_PKCS, nil), crypto.SHA384
	case "RS512":
		return pkcs11.NewMechanism(pkcs11.CKM_SHA512_RSA_PKCS, nil), crypto.SHA512
	default:
		return pkcs11.NewMechanism(pkcs11.CKM_SHA256_RSA_PKCS, nil), crypto.SHA256
	}
}

func (s *HSMSigner) ecdsaMechanism() (*pkcs11.Mechanism, crypto.Hash) {
	switch s.algorithm {
	case "ES384":
		return pkcs11.NewMechanism(pkcs11.CKM_ECDSA, nil), crypto.SHA384
	case "ES512":
		return pkcs11.NewMechanism(pkcs11.CKM_ECDSA, nil), crypto.SHA512
	default:
		return pkcs11.NewMechanism(pkcs11.CKM_ECDSA, nil), crypto.SHA256
	}
}

func rsaAlgorithmForBitLen(bits int) string {
	switch {
	case bits >= 4096:
		return "RS512"
	case bits >= 3072:
		return "RS384"
	default:
		return "RS256"
	}
}

func ecdsaAlgorithmForBitSize(bits int) string {
	switch bits {
	case 384:
		return "ES384"
	case 521:
		return "ES512"
	default:
		return "ES256"
	}
}

func bytesToUint(b []byte) uint {
	var result uint
	for _, v := range b {
		result = result<<8 | uint(v)
	}
	return result
}

func parseCurveOID(oid []byte) (elliptic.Curve, error) {
	p256OID := []byte{0x06, 0x08, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x03, 0x01, 0x07}
	p384OID := []byte{0x06, 0x05, 0x2b, 0x81, 0x04, 0x00, 0x22}
	p521OID := []byte{0x06, 0x05, 0x2b, 0x81, 0x04, 0x00, 0x23}
	switch {
	case bytesEqualOID(oid, p256OID):
		return elliptic.P256(), nil
	case bytesEqualOID(oid, p384OID):
		return elliptic.P384(), nil
	case bytesEqualOID(oid, p521OID):
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("signing: unrecognized EC curve OID %x", oid)
	}
}

func bytesEqualOID(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

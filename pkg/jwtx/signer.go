package jwtx

// AlgorithmEdDSA is the only algorithm the weather provider accepts.
const AlgorithmEdDSA = "EdDSA"

// Signer is our interface for anything that can sign provider JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(ProviderClaims) (string, error)
	PublicJWK() JWK
	Validate() error
}

// NewSignerEdDSA creates an EdDSA signer from PEM bytes.
// Ed25519 keys must be in PKCS8 format.
func NewSignerEdDSA(kid string, pemKey []byte) (Signer, error) {
	return newEdDSASigner(kid, pemKey)
}

// SignEdDSA imports pemKey and signs claims in one go. The key is parsed on
// every call, callers that sign rarely (once per run) don't need to keep a
// Signer around.
func SignEdDSA(pemKey []byte, kid string, claims ProviderClaims) (string, error) {
	s, err := newEdDSASigner(kid, pemKey)
	if err != nil {
		return "", err
	}
	return s.Sign(claims)
}

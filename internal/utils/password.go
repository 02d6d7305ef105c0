package utils // helpers for credential hashing shared by users and API clients

import "golang.org/x/crypto/bcrypt"

// HashSecret returns the bcrypt hash of a password or client secret using
// the given cost. Costs below bcrypt's minimum fall back to DefaultCost.
func HashSecret(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifySecret compares a stored bcrypt hash against a plaintext candidate.
// The comparison is delegated entirely to bcrypt; raw secrets are never
// compared directly.
func VerifySecret(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

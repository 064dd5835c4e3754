package crypto

import "golang.org/x/crypto/bcrypt"

// hashCost is the bcrypt work factor. 10 rounds keeps hashing around
// 50-100ms on current hardware.
const hashCost = 10

// HashPassword hashes a password with bcrypt. The salt is generated per
// call, so hashing the same password twice yields different output.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether a password matches the given bcrypt hash.
// A malformed hash counts as a mismatch rather than an error, so the
// caller cannot distinguish the two cases.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const legacyPrefix = "pbkdf2:"

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// VerifyPassword reports whether plain matches the stored hash. Besides
// bcrypt it accepts the legacy scheme "pbkdf2:sha256:<iterations>$<salt>$<hex>"
// carried over from accounts migrated out of the previous backend.
func VerifyPassword(plain, encoded string) bool {
	if strings.HasPrefix(encoded, legacyPrefix) {
		return verifyLegacyPBKDF2(plain, encoded)
	}
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain)) == nil
}

func verifyLegacyPBKDF2(plain, encoded string) bool {
	// pbkdf2:sha256:260000$salt$hexdigest
	parts := strings.SplitN(encoded, "$", 3)
	if len(parts) != 3 {
		return false
	}
	method := strings.Split(parts[0], ":")
	if len(method) != 3 || method[0] != "pbkdf2" || method[1] != "sha256" {
		return false
	}
	iterations, err := strconv.Atoi(method[2])
	if err != nil || iterations <= 0 {
		return false
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil {
		return false
	}

	got := pbkdf2.Key([]byte(plain), []byte(parts[1]), iterations, len(want), sha256.New)
	return hmac.Equal(got, want)
}

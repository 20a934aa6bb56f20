package internal

import "crypto/sha256"

// HashToken returns the one-way hash under which a credential value is stored.
// The plaintext token never reaches Redis.
func HashToken(token string) [32]byte {
	return sha256.Sum256([]byte(token))
}

// HashFingerprint folds the device binding inputs into a fixed-width digest.
// The newline separator prevents ("ab","c") and ("a","bc") from colliding.
func HashFingerprint(userAgent, clientCity string) [32]byte {
	h := sha256.New()
	h.Write([]byte(userAgent))
	h.Write([]byte{'\n'})
	h.Write([]byte(clientCity))

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

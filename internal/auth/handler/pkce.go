package handler

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/gin-gonic/gin"
)

// generatePKCE creates a verifier/challenge pair (S256). The verifier
// rides a handshake cookie back to the callback; only the challenge goes
// to the provider.
func generatePKCE(c *gin.Context) (verifier, challenge string) {
	verifier = randomToken()
	sum := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(sum[:])

	setHandshakeCookie(c, pkceCookieName, verifier)
	return verifier, challenge
}

func pkceVerifier(c *gin.Context) string {
	return handshakeCookie(c, pkceCookieName)
}

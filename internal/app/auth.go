package app

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// webhookSecret derives the path secret of the webhook route from the bot
// token, so the route is unguessable without configuring a second secret.
func webhookSecret(token string) string {
	sum := sha256.Sum256([]byte("webhook:" + token))
	return hex.EncodeToString(sum[:16])
}

// webhookURL is the address registered with setWebhook.
func webhookURL(base, token string) string {
	return strings.TrimRight(base, "/") + "/telegram/" + webhookSecret(token)
}

// webhookSecretMiddleware answers 404 unless the :secret path parameter
// matches, so a wrong guess looks like an unknown route.
func webhookSecretMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !secureEqual(c.Param("secret"), secret) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.Next()
	}
}

// metricsAuth guards /metrics with Basic Auth. An empty password leaves the
// route open.
func (a *Application) metricsAuth() gin.HandlerFunc {
	if a.cfg.MetricsPassword == "" {
		return func(c *gin.Context) { c.Next() }
	}
	return basicAuthMiddleware("metrics", a.cfg.MetricsUsername, a.cfg.MetricsPassword)
}

// basicAuthMiddleware rejects requests whose credentials differ from
// username and password.
func basicAuthMiddleware(realm, username, password string) gin.HandlerFunc {
	challenge := `Basic realm="` + realm + `"`
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		// Both comparisons always run.
		userMatch := secureEqual(user, username)
		passMatch := secureEqual(pass, password)
		if !ok || !userMatch || !passMatch {
			c.Header("WWW-Authenticate", challenge)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func secureEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

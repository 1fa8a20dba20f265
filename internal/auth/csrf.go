package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	CSRFFormField = "csrf_token"
	csrfHeader    = "X-CSRF-Token"
)

// CSRFToken returns the session's token, minting one on first use.
func CSRFToken(c *gin.Context) (string, error) {
	sess := sessions.Default(c)
	if token, ok := sess.Get(sessionKeyCSRF).(string); ok && token != "" {
		return token, nil
	}
	token, err := newToken()
	if err != nil {
		return "", err
	}
	sess.Set(sessionKeyCSRF, token)
	if err := sess.Save(); err != nil {
		return "", err
	}
	return token, nil
}

// VerifyCSRF rejects unsafe requests whose csrf_token field (or X-CSRF-Token
// header) does not match the session. onFail renders the rejection.
func VerifyCSRF(onFail gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		sess := sessions.Default(c)
		expected, _ := sess.Get(sessionKeyCSRF).(string)

		received := c.GetHeader(csrfHeader)
		if received == "" {
			received = c.PostForm(CSRFFormField)
		}

		if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			onFail(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

package handlers

import (
	"repairlog/internal/config"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// GetCaptureTokenFromSession retrieves the active capture session token from
// the cookie session. Returns ("", false) when no capture is in progress.
func GetCaptureTokenFromSession(c *gin.Context) (string, bool) {
	session := sessions.Default(c)
	token := session.Get(config.SessionTokenField)
	if token == nil {
		return "", false
	}
	str, ok := token.(string)
	if !ok || str == "" {
		return "", false
	}
	return str, true
}

// SetCaptureTokenInSession binds a capture session token to the cookie
// session so a browser client resumes the same capture across requests.
func SetCaptureTokenInSession(c *gin.Context, token string) error {
	session := sessions.Default(c)
	session.Set(config.SessionTokenField, token)
	return session.Save()
}

// ClearCaptureTokenFromSession removes the capture token binding.
func ClearCaptureTokenFromSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Delete(config.SessionTokenField)
	return session.Save()
}

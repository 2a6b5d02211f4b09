package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"jiopay/internal/models"
)

// SessionContextKey is where the validated checkout session is stored on
// the echo context.
const SessionContextKey = "checkout_session"

// SessionStore looks up checkout sessions by id.
type SessionStore interface {
	Get(ctx context.Context, id string) (*models.CheckoutSession, error)
}

// HashNonce returns the stored form of a nonce.
func HashNonce(nonce string) string {
	sum := sha256.Sum256([]byte(nonce))
	return hex.EncodeToString(sum[:])
}

// NonceCheck validates the caller-supplied anti-forgery token against the
// checkout session before any order logic runs. The token may arrive as a
// query parameter (return-URL channel), form field or JSON body field;
// the body is restored for downstream handlers either way. Failure
// short-circuits with a security error and never reaches order lookup.
func NonceCheck(sessions SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sessionID, nonce := extractCredentials(c)
			if sessionID == "" || nonce == "" {
				return securityError(c, "missing session or nonce")
			}

			session, err := sessions.Get(c.Request().Context(), sessionID)
			if err != nil {
				return securityError(c, "unknown session")
			}
			if time.Now().After(session.ExpiresAt) {
				return securityError(c, "session expired")
			}

			supplied := HashNonce(nonce)
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(session.NonceHash)) != 1 {
				return securityError(c, "invalid nonce")
			}

			c.Set(SessionContextKey, session)
			return next(c)
		}
	}
}

func securityError(c echo.Context, msg string) error {
	return c.JSON(http.StatusForbidden, map[string]interface{}{
		"success": false,
		"message": "security check failed: " + msg,
	})
}

func extractCredentials(c echo.Context) (sessionID, nonce string) {
	// Query parameters first: the asynchronous return URL embeds them.
	sessionID = c.QueryParam("session_id")
	nonce = c.QueryParam("nonce")
	if sessionID != "" && nonce != "" {
		return sessionID, nonce
	}

	req := c.Request()
	contentType := req.Header.Get(echo.HeaderContentType)

	if strings.HasPrefix(contentType, echo.MIMEApplicationForm) ||
		strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		if v := c.FormValue("session_id"); v != "" {
			sessionID = v
		}
		if v := c.FormValue("nonce"); v != "" {
			nonce = v
		}
		return sessionID, nonce
	}

	if req.Body == nil {
		return sessionID, nonce
	}
	rawBody, err := io.ReadAll(req.Body)
	if err != nil {
		return sessionID, nonce
	}
	req.Body = io.NopCloser(bytes.NewBuffer(rawBody))
	if len(rawBody) == 0 {
		return sessionID, nonce
	}

	var payload struct {
		SessionID string `json:"session_id"`
		Nonce     string `json:"nonce"`
	}
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return sessionID, nonce
	}
	if sessionID == "" {
		sessionID = payload.SessionID
	}
	if nonce == "" {
		nonce = payload.Nonce
	}
	return sessionID, nonce
}

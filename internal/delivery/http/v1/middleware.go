package v1

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	userIDCtxKey    = "user_id"
	requestIDCtxKey = "request_id"

	requestIDHeader = "X-Request-ID"
)

func (h *handlerImpl) HandleRequestID(c *gin.Context) {
	requestID := c.GetHeader(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c.Set(requestIDCtxKey, requestID)
	c.Header(requestIDHeader, requestID)
	c.Next()
}

func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	accessToken, ok := bearerToken(c)
	if !ok {
		h.logger.Debug().
			Str("request_id", c.GetString(requestIDCtxKey)).
			Msg("invalid authorization header")
		abort(c, newUnauthorizedError(errMissingBearerToken.Error()))
		return
	}

	identity, err := h.auth.Authenticate(accessToken)
	if err != nil {
		h.abortWithServiceError(c, err)
		return
	}

	c.Set(userIDCtxKey, identity.UserID)
	c.Next()
}

// bearerToken extracts the token from the Authorization header. Browsers
// cannot set headers on websocket upgrades, so those alone may pass it in
// the access_token query parameter instead.
func bearerToken(c *gin.Context) (string, bool) {
	const bearerPrefix = "Bearer"

	header := c.GetHeader("Authorization")
	if header == "" {
		if !websocket.IsWebSocketUpgrade(c.Request) {
			return "", false
		}
		token := c.Query("access_token")
		return token, token != ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerPrefix) || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func getUserID(c *gin.Context) string {
	return c.GetString(userIDCtxKey)
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	bearerScheme        = "Bearer"
	// Browsers cannot set headers on a WebSocket upgrade.
	tokenQueryParam = "token"

	// userIDKey holds the authenticated user ID in the gin context.
	userIDKey = "userId"

	errMissingToken  = "missing Authorization header or token parameter"
	errBadAuthHeader = "invalid Authorization header format"
	errBadToken      = "invalid or expired token"
)

// requireUser resolves the bearer token (header first, then ?token=) to a user ID.
func (h *Handler) requireUser(c *gin.Context) {
	token, errMsg := bearerToken(c)
	if errMsg != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMsg})
		return
	}

	userID, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_token_rejected", "path", c.FullPath(), "err", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errBadToken})
		return
	}

	c.Set(userIDKey, userID)
	c.Next()
}

func bearerToken(c *gin.Context) (string, string) {
	if header := c.GetHeader(authorizationHeader); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != bearerScheme || strings.TrimSpace(parts[1]) == "" {
			return "", errBadAuthHeader
		}
		return strings.TrimSpace(parts[1]), ""
	}
	if token := strings.TrimSpace(c.Query(tokenQueryParam)); token != "" {
		return token, ""
	}
	return "", errMissingToken
}

// currentUserID returns the ID stored by requireUser.
func currentUserID(c *gin.Context) (int, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

package middleware

import "github.com/gin-gonic/gin"

// actorIDKey is the key used to store the acting user's ID in the Gin context.
const actorIDKey = contextKey("actorID")

// actorHeader carries the acting user's identifier, set by the authenticating
// reverse proxy in front of this service. Authentication itself lives outside
// the finance core.
const actorHeader = "X-Actor-ID"

// ActorMiddleware extracts the acting user ID from the request header and
// stores it in the Gin context. Requests with no actor fall back to "system"
// (scheduled jobs, internal calls).
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.GetHeader(actorHeader)
		if actor == "" {
			actor = "system"
		}
		c.Set(string(actorIDKey), actor)
		c.Next()
	}
}

// GetActorIDFromContext retrieves the acting user ID from the Gin context.
func GetActorIDFromContext(c *gin.Context) (string, bool) {
	actorVal, exists := c.Get(string(actorIDKey))
	if !exists {
		return "", false
	}
	actor, ok := actorVal.(string)
	if !ok {
		return "", false
	}
	return actor, true
}

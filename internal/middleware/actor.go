// Package middleware разбирает заголовки шлюза в актора запроса.
// Аутентификацию выполняет внешний identity-сервис, сюда приходит уже
// разрешённая личность.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/helpdesk-service/internal/model"
)

const actorKey = "actor"

const (
	HeaderActorID    = "X-Actor-Id"
	HeaderActorRole  = "X-Actor-Role"
	HeaderActorName  = "X-Actor-Name"
	HeaderActorEmail = "X-Actor-Email"
)

// WithActor требует заголовки актора и кладёт model.Actor в контекст запроса.
func WithActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := strings.TrimSpace(c.GetHeader(HeaderActorID))
		role := strings.TrimSpace(c.GetHeader(HeaderActorRole))
		if rawID == "" || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		id, err := strconv.ParseUint(rawID, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid actor id"})
			return
		}
		c.Set(actorKey, model.Actor{
			ID:       id,
			Role:     model.Role(role),
			FullName: strings.TrimSpace(c.GetHeader(HeaderActorName)),
			Email:    strings.TrimSpace(c.GetHeader(HeaderActorEmail)),
		})
		c.Next()
	}
}

// Actor достаёт актора, положенного WithActor.
func Actor(c *gin.Context) model.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return model.Actor{}
	}
	actor, _ := v.(model.Actor)
	return actor
}

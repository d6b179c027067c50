package httpserver

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vls-lab/ctf-server/internal/model"
)

// NewRouter assembles the gin engine with middleware and all routes.
func NewRouter(s *Server, signKey []byte, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(Recover(log), AccessLog(log))

	api := r.Group("/api/v1")

	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)

	api.GET("/challenges", s.listChallenges)
	api.GET("/challenges/:id", s.getChallenge)
	api.GET("/leaderboard", s.getLeaderboard)

	authed := api.Group("", RequireAuth(signKey))
	authed.POST("/challenges/:id/submissions", s.submitFlag)
	authed.GET("/challenges/:id/solved", s.solved)
	authed.GET("/notifications", s.listNotifications)
	authed.POST("/notifications/:id/read", s.markNotificationRead)

	admin := api.Group("/admin", RequireAuth(signKey), RequireRole(model.RoleAdmin))
	admin.POST("/challenges", s.adminCreateChallenge)
	admin.PUT("/challenges/:id", s.adminUpdateChallenge)
	admin.GET("/challenges", s.adminListChallenges)

	return r
}

package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"

	"github.com/vls-lab/ctf-server/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	auth          service.AuthService
	challenges    service.ChallengeService
	submissions   service.SubmissionService
	leaderboard   service.LeaderboardService
	notifications service.NotificationService
}

// NewServer constructs the handler set with injected services.
func NewServer(
	auth service.AuthService,
	challenges service.ChallengeService,
	submissions service.SubmissionService,
	leaderboard service.LeaderboardService,
	notifications service.NotificationService,
) *Server {
	return &Server{
		auth:          auth,
		challenges:    challenges,
		submissions:   submissions,
		leaderboard:   leaderboard,
		notifications: notifications,
	}
}

// --- Auth ---

type registerReq struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

func (s *Server) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Msg: "invalid request body"})
		return
	}
	userID, err := s.auth.Register(c.Request.Context(), req.Username, req.DisplayName, req.Password)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "registered", gin.H{"user_id": userID})
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Msg: "invalid request body"})
		return
	}
	tok, u, err := s.auth.LoginWithIP(c.Request.Context(), req.Username, req.Password, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "ok", gin.H{
		"access_token": tok.AccessToken,
		"expires_at":   tok.ExpiresAt,
		"user": gin.H{
			"id":           u.ID,
			"display_name": u.DisplayName,
			"role":         u.Role,
		},
	})
}

// --- Challenges ---

func (s *Server) listChallenges(c *gin.Context) {
	out, err := s.challenges.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "ok", gin.H{"total": len(out), "challenges": out})
}

func (s *Server) getChallenge(c *gin.Context) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Msg: "invalid challenge id"})
		return
	}
	out, err := s.challenges.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "ok", out)
}

// --- Submissions ---

type submitReq struct {
	Flag string `json:"flag"`
}

func (s *Server) submitFlag(c *gin.Context) {
	challengeID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Msg: "invalid challenge id"})
		return
	}
	userID, ok := userIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{Code: http.StatusUnauthorized, Msg: "unauthorized"})
		return
	}
	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Msg: "invalid request body"})
		return
	}

	verdict, err := s.submissions.Submit(c.Request.Context(), userID, challengeID, req.Flag, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}

	msg := "incorrect flag"
	switch {
	case verdict.AlreadySolved:
		msg = "already solved"
	case verdict.Correct:
		msg = "correct"
	}
	respondOK(c, msg, verdict)
}

func (s *Server) solved(c *gin.Context) {
	challengeID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Msg: "invalid challenge id"})
		return
	}
	userID, ok := userIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{Code: http.StatusUnauthorized, Msg: "unauthorized"})
		return
	}
	solved, err := s.submissions.HasSolved(c.Request.Context(), userID, challengeID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "ok", gin.H{"solved": solved})
}

// --- Leaderboard ---

func (s *Server) getLeaderboard(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		// non-numeric limits fall back to the service default
		limit = atoiOrZero(v)
	}
	entries, err := s.leaderboard.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "ok", gin.H{"entries": entries})
}

func atoiOrZero(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
		if n > 1<<30 {
			return 0
		}
	}
	return n
}

// --- Notifications ---

func (s *Server) listNotifications(c *gin.Context) {
	userID, ok := userIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{Code: http.StatusUnauthorized, Msg: "unauthorized"})
		return
	}
	out, err := s.notifications.List(c.Request.Context(), userID, atoiOrZero(c.Query("limit")))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "ok", gin.H{"notifications": out})
}

func (s *Server) markNotificationRead(c *gin.Context) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Msg: "invalid notification id"})
		return
	}
	userID, ok := userIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{Code: http.StatusUnauthorized, Msg: "unauthorized"})
		return
	}
	if err := s.notifications.MarkRead(c.Request.Context(), userID, id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "ok", nil)
}

// --- Admin ---

func (s *Server) adminCreateChallenge(c *gin.Context) {
	var in service.ChallengeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Msg: "invalid request body"})
		return
	}
	out, err := s.challenges.Create(c.Request.Context(), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "challenge created", out)
}

func (s *Server) adminUpdateChallenge(c *gin.Context) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Msg: "invalid challenge id"})
		return
	}
	var in service.ChallengeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest, Msg: "invalid request body"})
		return
	}
	if err := s.challenges.Update(c.Request.Context(), id, in); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "challenge updated", nil)
}

func (s *Server) adminListChallenges(c *gin.Context) {
	out, err := s.challenges.ListWithStats(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "ok", gin.H{"total": len(out), "challenges": out})
}

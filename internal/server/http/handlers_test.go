package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vls-lab/ctf-server/internal/errs"
	"github.com/vls-lab/ctf-server/internal/model"
	"github.com/vls-lab/ctf-server/internal/service"
)

var testKey = []byte("test-signing-key")

type stubAuth struct{}

func (stubAuth) Register(context.Context, string, string, string) (string, error) {
	return uuid.Must(uuid.NewV4()).String(), nil
}

func (stubAuth) LoginWithIP(context.Context, string, string, string) (model.Tokens, model.User, error) {
	return model.Tokens{AccessToken: "tok"}, model.User{Role: model.RoleStudent}, nil
}

type stubChallenges struct {
	public model.ChallengePublic
	err    error
}

func (s stubChallenges) Create(context.Context, service.ChallengeInput) (model.ChallengePublic, error) {
	return s.public, s.err
}
func (s stubChallenges) Update(context.Context, uuid.UUID, service.ChallengeInput) error {
	return s.err
}
func (s stubChallenges) Get(context.Context, uuid.UUID) (model.ChallengePublic, error) {
	return s.public, s.err
}
func (s stubChallenges) List(context.Context) ([]model.ChallengePublic, error) {
	return []model.ChallengePublic{s.public}, s.err
}
func (s stubChallenges) ListWithStats(context.Context) ([]model.ChallengeStats, error) {
	return nil, s.err
}

type stubSubmissions struct {
	verdict model.Verdict
	err     error
}

func (s stubSubmissions) Submit(context.Context, uuid.UUID, uuid.UUID, string, string) (model.Verdict, error) {
	return s.verdict, s.err
}
func (s stubSubmissions) HasSolved(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return s.verdict.Correct, s.err
}

type stubLeaderboard struct {
	entries []model.ScoreEntry
	err     error
}

func (s stubLeaderboard) Leaderboard(context.Context, int) ([]model.ScoreEntry, error) {
	return s.entries, s.err
}
func (s stubLeaderboard) Rebuild(context.Context) error { return s.err }

type stubNotifications struct{ err error }

func (s stubNotifications) List(context.Context, uuid.UUID, int) ([]model.Notification, error) {
	return nil, s.err
}
func (s stubNotifications) MarkRead(context.Context, uuid.UUID, uuid.UUID) error {
	return s.err
}

func newTestRouter(sub service.SubmissionService, ch service.ChallengeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	srv := NewServer(stubAuth{}, ch, sub, stubLeaderboard{}, stubNotifications{})
	return NewRouter(srv, testKey, zap.NewNop())
}

func bearer(t *testing.T, role model.Role) string {
	t.Helper()
	claims := service.AccessClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.Must(uuid.NewV4()).String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)
	return "Bearer " + signed
}

func doJSON(r *gin.Engine, method, path, auth string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitFlag_RequiresAuth(t *testing.T) {
	r := newTestRouter(stubSubmissions{}, stubChallenges{})
	id := uuid.Must(uuid.NewV4())

	w := doJSON(r, http.MethodPost, "/api/v1/challenges/"+id.String()+"/submissions", "", gin.H{"flag": "FLAG{x}"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/challenges/"+id.String()+"/submissions", "Bearer not-a-token", gin.H{"flag": "FLAG{x}"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitFlag_VerdictEnvelope(t *testing.T) {
	sub := stubSubmissions{verdict: model.Verdict{Correct: true, PointsAwarded: 100}}
	r := newTestRouter(sub, stubChallenges{})
	id := uuid.Must(uuid.NewV4())

	w := doJSON(r, http.MethodPost, "/api/v1/challenges/"+id.String()+"/submissions", bearer(t, model.RoleStudent), gin.H{"flag": "FLAG{x}"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Code int           `json:"code"`
		Msg  string        `json:"msg"`
		Data model.Verdict `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Zero(t, resp.Code)
	require.Equal(t, "correct", resp.Msg)
	require.True(t, resp.Data.Correct)
	require.Equal(t, 100, resp.Data.PointsAwarded)
}

func TestSubmitFlag_ErrorMapping(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid input", errs.ErrInvalidInput, http.StatusBadRequest},
		{"unknown challenge", errs.ErrNotFound, http.StatusNotFound},
		{"rate limited", errs.ErrRateLimited, http.StatusTooManyRequests},
		{"store down", context.DeadlineExceeded, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(stubSubmissions{err: tc.err}, stubChallenges{})
			w := doJSON(r, http.MethodPost, "/api/v1/challenges/"+id.String()+"/submissions", bearer(t, model.RoleStudent), gin.H{"flag": "FLAG{x}"})
			require.Equal(t, tc.status, w.Code)
		})
	}
}

func TestSubmitFlag_BadChallengeID(t *testing.T) {
	r := newTestRouter(stubSubmissions{}, stubChallenges{})
	w := doJSON(r, http.MethodPost, "/api/v1/challenges/not-a-uuid/submissions", bearer(t, model.RoleStudent), gin.H{"flag": "FLAG{x}"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	r := newTestRouter(stubSubmissions{}, stubChallenges{})
	body := gin.H{"title": "t", "difficulty": "Easy", "points": 100, "flag": "FLAG{x}"}

	w := doJSON(r, http.MethodPost, "/api/v1/admin/challenges", bearer(t, model.RoleStudent), body)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/admin/challenges", bearer(t, model.RoleAdmin), body)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminUpdate_FrozenConflict(t *testing.T) {
	r := newTestRouter(stubSubmissions{}, stubChallenges{err: errs.ErrChallengeFrozen})
	id := uuid.Must(uuid.NewV4())
	body := gin.H{"title": "t", "difficulty": "Easy", "points": 100}

	w := doJSON(r, http.MethodPut, "/api/v1/admin/challenges/"+id.String(), bearer(t, model.RoleAdmin), body)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestListChallenges_Public(t *testing.T) {
	pub := model.ChallengePublic{ID: uuid.Must(uuid.NewV4()), Title: "baby-rsa", Points: 100}
	r := newTestRouter(stubSubmissions{}, stubChallenges{public: pub})

	w := doJSON(r, http.MethodGet, "/api/v1/challenges", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "baby-rsa")
	require.NotContains(t, w.Body.String(), "flag_digest")
}

func TestLeaderboard_Public(t *testing.T) {
	r := newTestRouter(stubSubmissions{}, stubChallenges{})
	w := doJSON(r, http.MethodGet, "/api/v1/leaderboard?limit=abc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/municipal-tracker/internal/auth"
	"github.com/yukikurage/municipal-tracker/internal/dto"
	"github.com/yukikurage/municipal-tracker/internal/lifecycle"
	"github.com/yukikurage/municipal-tracker/internal/repository"
	"github.com/yukikurage/municipal-tracker/internal/services"
	"github.com/yukikurage/municipal-tracker/internal/testutil"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testPassword = "supersecret"

// apiEnv is a full router over an in-memory database with a fixed clock.
type apiEnv struct {
	t      testing.TB
	db     *gorm.DB
	router *gin.Engine
	now    time.Time
	tasks  *services.TaskService
	auth   *services.AuthService
}

func newAPIEnv(t testing.TB) *apiEnv {
	t.Helper()

	db := testutil.NewDB(t)
	env := &apiEnv{t: t, db: db, now: time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return env.now }

	taskRepo := repository.NewTaskRepository(db)
	fileRepo := repository.NewFileRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	env.auth = services.NewAuthService(repository.NewUserRepository(db))
	env.tasks = services.NewTaskService(taskRepo, fileRepo, services.TaskServiceOptions{
		Policy:    lifecycle.DefaultPolicy,
		Lookahead: lifecycle.DefaultLookahead,
		Now:       clock,
	})

	env.router = NewRouter(RouterDeps{
		Issuer:     auth.NewIssuer("test-secret", time.Hour),
		Auth:       env.auth,
		Tasks:      env.tasks,
		Files:      services.NewFileService(fileRepo),
		Activities: services.NewActivityService(activityRepo),
		Dashboard:  services.NewDashboardService(env.tasks, taskRepo, fileRepo, activityRepo, time.UTC),
		Location:   time.UTC,
		Now:        clock,
	})
	return env
}

// signup creates a user through the service and logs in over HTTP.
func (e *apiEnv) signup(username string) string {
	e.t.Helper()

	_, err := e.auth.CreateUser(services.CreateUserInput{
		Username: username,
		Password: testPassword,
		FullName: username + " Inspector",
	})
	require.NoError(e.t, err)

	w := e.do(http.MethodPost, "/api/users/login", "", dto.LoginRequest{Username: username, Password: testPassword})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.LoginResponse
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func (e *apiEnv) do(method, url, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()

	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		req = httptest.NewRequest(method, url, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t testing.TB, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

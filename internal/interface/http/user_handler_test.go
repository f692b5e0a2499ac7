package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	userapp "github.com/oksasatya/user-management-api/internal/application"
	"github.com/oksasatya/user-management-api/internal/domain/entity"
	repo "github.com/oksasatya/user-management-api/internal/domain/repository"
	handlers "github.com/oksasatya/user-management-api/internal/interface/http"
	"github.com/oksasatya/user-management-api/internal/router"
	"github.com/oksasatya/user-management-api/internal/router/modules"
	"github.com/oksasatya/user-management-api/pkg/helpers"
	"github.com/oksasatya/user-management-api/pkg/validation"
)

// fakeRepo is a minimal in-memory UserRepository for wiring the full HTTP
// stack without postgres.
type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*entity.User
}

func newFakeRepo() *fakeRepo { return &fakeRepo{users: map[int64]*entity.User{}} }

func (f *fakeRepo) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.users {
		if e.Email == u.Email {
			return repo.ErrDuplicateEmail
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeRepo) FindByID(_ context.Context, id int64) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) List(_ context.Context, filter repo.ListFilter) ([]*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.User, 0, len(f.users))
	for id := int64(1); id <= f.nextID; id++ {
		u, ok := f.users[id]
		if !ok {
			continue
		}
		if filter.Department != nil {
			if u.Department == nil || *u.Department != *filter.Department {
				continue
			}
			if filter.Active != nil && u.Active != *filter.Active {
				continue
			}
		} else if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, patch repo.UserPatch) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	patch.Apply(u)
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) SoftDelete(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return false, nil
	}
	u.Active = false
	u.UpdatedAt = time.Now().UTC()
	return true, nil
}

var _ repo.UserRepository = (*fakeRepo)(nil)

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestEngine(t *testing.T) (*gin.Engine, *helpers.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	jwtManager, err := helpers.NewJWTManager("test-secret", "HS256", 30*time.Minute)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := userapp.NewService(newFakeRepo(), jwtManager, nil, logger, bcrypt.MinCost)

	engine := gin.New()
	reg := router.NewRegistry(engine)
	reg.Add(modules.NewAuthModule(handlers.NewAuthHandler(svc, logger)))
	reg.Add(modules.NewUserModule(handlers.NewUserHandler(svc, logger), jwtManager, logger))
	reg.RegisterAll()
	return engine, jwtManager
}

func do(t *testing.T, engine *gin.Engine, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w, env
}

func TestAccountLifecycleScenario(t *testing.T) {
	engine, _ := newTestEngine(t)

	// Register
	w, env := do(t, engine, http.MethodPost, "/auth/registro", "",
		`{"email":"a@x.com","full_name":"Ana Silva","password":"Abcdef12"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created entity.PublicView
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, int64(1), created.ID)
	require.True(t, created.Active)
	require.NotContains(t, w.Body.String(), "password", "response must never carry the hash")

	// Duplicate registration
	w, _ = do(t, engine, http.MethodPost, "/auth/registro", "",
		`{"email":"a@x.com","full_name":"Ana Silva","password":"Abcdef12"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Login
	w, env = do(t, engine, http.MethodPost, "/auth/login", "",
		`{"email":"a@x.com","password":"Abcdef12"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var login struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.Equal(t, "bearer", login.TokenType)
	require.NotEmpty(t, login.AccessToken)

	// Wrong password
	w, _ = do(t, engine, http.MethodPost, "/auth/login", "",
		`{"email":"a@x.com","password":"wrongpass"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Current user
	w, env = do(t, engine, http.MethodGet, "/users/me", login.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	var me entity.PublicView
	require.NoError(t, json.Unmarshal(env.Data, &me))
	require.Equal(t, "a@x.com", me.Email)

	// Deactivate, twice: both succeed
	w, _ = do(t, engine, http.MethodDelete, "/users/1", login.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, engine, http.MethodDelete, "/users/1", login.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	// Inactive account can no longer log in
	w, _ = do(t, engine, http.MethodPost, "/auth/login", "",
		`{"email":"a@x.com","password":"Abcdef12"}`)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRegister_ValidationFailures(t *testing.T) {
	engine, _ := newTestEngine(t)

	cases := []struct {
		name string
		body string
	}{
		{"weak password", `{"email":"a@x.com","full_name":"Ana Silva","password":"abcdefgh"}`},
		{"short password", `{"email":"a@x.com","full_name":"Ana Silva","password":"Ab1"}`},
		{"bad email", `{"email":"not-an-email","full_name":"Ana Silva","password":"Abcdef12"}`},
		{"missing name", `{"email":"a@x.com","password":"Abcdef12"}`},
		{"bad json", `{`},
	}
	for _, tc := range cases {
		w, _ := do(t, engine, http.MethodPost, "/auth/registro", "", tc.body)
		require.Equal(t, http.StatusBadRequest, w.Code, tc.name)
	}
}

func TestProtectedRoutes_RequireValidToken(t *testing.T) {
	engine, jwtManager := newTestEngine(t)

	// No token
	w, _ := do(t, engine, http.MethodGet, "/users/me", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Tampered token
	valid, err := jwtManager.Issue("a@x.com", time.Now().UTC())
	require.NoError(t, err)
	last := valid[len(valid)-1]
	flip := "A"
	if last == 'A' {
		flip = "B"
	}
	tampered := valid[:len(valid)-1] + flip
	w, _ = do(t, engine, http.MethodGet, "/users/me", tampered, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Expired token
	expired, err := jwtManager.Issue("a@x.com", time.Now().UTC().Add(-2*time.Hour))
	require.NoError(t, err)
	w, _ = do(t, engine, http.MethodGet, "/users/me", expired, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserCRUDEndpoints(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, _ = do(t, engine, http.MethodPost, "/auth/registro", "",
		`{"email":"a@x.com","full_name":"Ana Silva","password":"Abcdef12","department":"Engineering","job_title":"Developer"}`)
	_, _ = do(t, engine, http.MethodPost, "/auth/registro", "",
		`{"email":"b@x.com","full_name":"Bruno Costa","password":"Abcdef12","department":"Finance","active":false}`)

	_, env := do(t, engine, http.MethodPost, "/auth/login", "",
		`{"email":"a@x.com","password":"Abcdef12"}`)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	token := login.AccessToken

	// Get by id
	w, env := do(t, engine, http.MethodGet, "/users/2", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var u entity.PublicView
	require.NoError(t, json.Unmarshal(env.Data, &u))
	require.Equal(t, "b@x.com", u.Email)
	require.False(t, u.Active)

	// Unknown id
	w, _ = do(t, engine, http.MethodGet, "/users/99", token, "")
	require.Equal(t, http.StatusNotFound, w.Code)

	// Partial update: only the department changes
	w, env = do(t, engine, http.MethodPut, "/users/1", token, `{"department":"Platform"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &u))
	require.Equal(t, "Ana Silva", u.FullName)
	require.NotNil(t, u.JobTitle)
	require.Equal(t, "Developer", *u.JobTitle)
	require.NotNil(t, u.Department)
	require.Equal(t, "Platform", *u.Department)

	// Update unknown id
	w, _ = do(t, engine, http.MethodPut, "/users/99", token, `{"department":"Platform"}`)
	require.Equal(t, http.StatusNotFound, w.Code)

	// Listing with filters
	list := func(query string) []entity.PublicView {
		w, env := do(t, engine, http.MethodGet, "/users/"+query, token, "")
		require.Equal(t, http.StatusOK, w.Code)
		if len(env.Data) == 0 {
			// empty lists are omitted from the envelope
			return nil
		}
		var views []entity.PublicView
		require.NoError(t, json.Unmarshal(env.Data, &views))
		return views
	}
	require.Len(t, list(""), 2)
	require.Len(t, list("?active=true"), 1)
	require.Len(t, list("?department=Finance"), 1)
	require.Len(t, list("?department=Finance&active=true"), 0)

	w, _ = do(t, engine, http.MethodGet, "/users/?active=banana", token, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Delete unknown id
	w, _ = do(t, engine, http.MethodDelete, "/users/99", token, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

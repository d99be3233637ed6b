package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shepherd-church/shepherd/internal/access"
	"github.com/shepherd-church/shepherd/internal/auth"
	"github.com/shepherd-church/shepherd/internal/config"
	"github.com/shepherd-church/shepherd/internal/db"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/queue"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "router.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	evaluator, err := access.NewEvaluator(access.DefaultTable(), "")
	if err != nil {
		t.Fatalf("failed to build evaluator: %v", err)
	}

	q := queue.NewMemoryQueue(10)
	t.Cleanup(func() { q.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		Auth:   config.AuthConfig{JWTSecret: "router-test-secret", TokenDuration: time.Hour},
	}
	return NewRouter(cfg, database, q, evaluator, nil), database
}

func login(t *testing.T, r *gin.Engine, database *gorm.DB, username string, role models.Role) string {
	t.Helper()
	if _, err := db.CreateUser(database, username, username+"@test.com", "correct-horse", role); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	body, _ := json.Marshal(auth.LoginRequest{Username: username, Password: "correct-horse"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}

	var resp auth.LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	return resp.Token
}

func get(r *gin.Engine, path, token string, cookie bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		if cookie {
			req.AddCookie(&http.Cookie{Name: auth.TokenCookie, Value: token})
		} else {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_APIAccessByRole(t *testing.T) {
	r, database := setupRouter(t)
	member := login(t, r, database, "pew", models.RoleMember)
	admin := login(t, r, database, "treasurer", models.RoleAdmin)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"anonymous is rejected", "/api/v1/members", "", http.StatusUnauthorized},
		{"member cannot list donations", "/api/v1/donations", member, http.StatusForbidden},
		{"member cannot list members", "/api/v1/members", member, http.StatusForbidden},
		{"member reads the forum", "/api/v1/forum/posts", member, http.StatusOK},
		{"member reads own profile", "/api/v1/profile", member, http.StatusOK},
		{"member sees dashboard", "/api/v1/dashboard/stats", member, http.StatusOK},
		{"admin lists donations", "/api/v1/donations", admin, http.StatusOK},
		{"admin cannot manage users", "/api/v1/users", admin, http.StatusForbidden},
		{"health is public", "/api/v1/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.path, tt.token, false)
			if w.Code != tt.status {
				t.Errorf("GET %s: expected %d, got %d", tt.path, tt.status, w.Code)
			}
		})
	}
}

func TestRouter_StaffCannotDelete(t *testing.T) {
	r, database := setupRouter(t)
	staff := login(t, r, database, "usher", models.RoleUser)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/members/00000000-0000-0000-0000-000000000001", nil)
	req.Header.Set("Authorization", "Bearer "+staff)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestRouter_PageGuards(t *testing.T) {
	r, database := setupRouter(t)
	member := login(t, r, database, "pew", models.RoleMember)

	w := get(r, "/members", "", false)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login?next=%2Fmembers" {
		t.Errorf("expected redirect to login, got %d %q", w.Code, w.Header().Get("Location"))
	}

	w = get(r, "/donations", member, true)
	if w.Code != http.StatusFound || w.Header().Get("Location") != access.DefaultFallbackPath {
		t.Errorf("expected silent redirect to fallback, got %d %q", w.Code, w.Header().Get("Location"))
	}

	w = get(r, "/forum/some-post", member, true)
	if w.Code != http.StatusOK {
		t.Errorf("expected forum deep link to be served, got %d", w.Code)
	}

	w = get(r, "/login", "", false)
	if w.Code != http.StatusOK {
		t.Errorf("expected login page, got %d", w.Code)
	}

	w = get(r, "/", member, true)
	if w.Code != http.StatusFound || w.Header().Get("Location") != access.DefaultFallbackPath {
		t.Errorf("expected root to redirect to fallback, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestRouter_CurrentUserListsAllowedPaths(t *testing.T) {
	r, database := setupRouter(t)
	token := login(t, r, database, "usher", models.RoleUser)

	w := get(r, "/api/v1/auth/me", token, false)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		AllowedPaths []string `json:"allowed_paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	want := map[string]bool{"/attendance": true, "/dashboard": true, "/events": true, "/forum": true, "/members": true, "/profile": true}
	if len(resp.AllowedPaths) != len(want) {
		t.Fatalf("expected %d paths, got %v", len(want), resp.AllowedPaths)
	}
	for _, p := range resp.AllowedPaths {
		if !want[p] {
			t.Errorf("unexpected path %s", p)
		}
	}
}

func send(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_ForumEditsFollowOwnership(t *testing.T) {
	r, database := setupRouter(t)
	author := login(t, r, database, "pew", models.RoleMember)
	neighbour := login(t, r, database, "choir", models.RoleMember)

	w := send(r, http.MethodPost, "/api/v1/forum/posts", author, map[string]string{"title": "Potluck", "body": "Sunday after service"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var post models.ForumPost
	if err := json.Unmarshal(w.Body.Bytes(), &post); err != nil {
		t.Fatalf("failed to decode post: %v", err)
	}
	path := "/api/v1/forum/posts/" + post.ID.String()
	update := map[string]string{"title": "Potluck (moved)", "body": "Saturday instead"}

	if w := send(r, http.MethodPut, path, neighbour, update); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for another member, got %d", w.Code)
	}
	if w := send(r, http.MethodPut, path, author, update); w.Code != http.StatusOK {
		t.Errorf("expected the member author to edit, got %d: %s", w.Code, w.Body.String())
	}
	if w := send(r, http.MethodDelete, path, neighbour, nil); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 deleting another member's post, got %d", w.Code)
	}
	if w := send(r, http.MethodDelete, path, author, nil); w.Code != http.StatusNoContent {
		t.Errorf("expected the member author to delete, got %d", w.Code)
	}
}

package identity

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ecotrack/ecotrack/internal/credstore"
	"github.com/ecotrack/ecotrack/internal/db/models"
	"github.com/ecotrack/ecotrack/internal/token"
	"github.com/ecotrack/ecotrack/internal/web/handler"
)

type fixture struct {
	app    *fiber.App
	users  *credstore.Store
	tokens *token.Service
	db     *gorm.DB
	user   *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate user model: %v", err)
	}

	users := credstore.New(db)

	user, err := users.Create("alice", "alice@example.com", "s3cr3t")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	tokens := token.New("access-secret", "refresh-secret", 0, 0)

	app := fiber.New()
	app.Use(Middleware(users, tokens))

	// whoami reports the resolved identity without requiring one
	app.Get("/whoami", func(c *fiber.Ctx) error {
		if u := FromContext(c); u != nil {
			return c.JSON(fiber.Map{"username": u.Username})
		}

		return c.JSON(fiber.Map{"username": nil})
	})

	app.Get("/private", RequireAuth, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	return &fixture{app: app, users: users, tokens: tokens, db: db, user: user}
}

func (f *fixture) get(t *testing.T, path, accessCookie string) (*http.Response, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accessCookie != "" {
		req.AddCookie(&http.Cookie{Name: handler.AccessCookie, Value: accessCookie})
	}

	resp, err := f.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(resp.Body)

	var body map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("response is not JSON: %q", raw)
		}
	}

	return resp, body
}

func TestMiddleware_ValidTokenResolvesUser(t *testing.T) {
	f := newFixture(t)

	access, err := f.tokens.IssueAccess(f.user.ID)
	if err != nil {
		t.Fatalf("failed to issue access token: %v", err)
	}

	resp, body := f.get(t, "/whoami", access)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if body["username"] != "alice" {
		t.Fatalf("expected alice, got %v", body["username"])
	}
}

func TestMiddleware_AnonymousDegradations(t *testing.T) {
	f := newFixture(t)

	expired := token.New("access-secret", "refresh-secret", -time.Minute, 0)

	expiredAccess, err := expired.IssueAccess(f.user.ID)
	if err != nil {
		t.Fatalf("failed to issue expired token: %v", err)
	}

	refresh, err := f.tokens.IssueRefresh(f.user.ID)
	if err != nil {
		t.Fatalf("failed to issue refresh token: %v", err)
	}

	cases := []struct {
		name   string
		cookie string
	}{
		{"no cookie", ""},
		{"garbage token", "not-a-jwt"},
		{"expired token", expiredAccess},
		{"refresh token in access cookie", refresh},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := f.get(t, "/whoami", tc.cookie)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("anonymous resolution must not fail the request, got %d", resp.StatusCode)
			}

			if body["username"] != nil {
				t.Fatalf("expected anonymous, got %v", body["username"])
			}
		})
	}
}

func TestMiddleware_DeletedUserIsAnonymous(t *testing.T) {
	f := newFixture(t)

	access, err := f.tokens.IssueAccess(f.user.ID)
	if err != nil {
		t.Fatalf("failed to issue access token: %v", err)
	}

	if err := f.db.Delete(&models.User{}, f.user.ID).Error; err != nil {
		t.Fatalf("failed to delete user: %v", err)
	}

	_, body := f.get(t, "/whoami", access)
	if body["username"] != nil {
		t.Fatalf("token for a deleted user must resolve to anonymous, got %v", body["username"])
	}
}

func TestRequireAuth(t *testing.T) {
	f := newFixture(t)

	resp, body := f.get(t, "/private", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	if body["message"] != "Authentication required" {
		t.Fatalf("unexpected body: %v", body)
	}

	access, err := f.tokens.IssueAccess(f.user.ID)
	if err != nil {
		t.Fatalf("failed to issue access token: %v", err)
	}

	resp, _ = f.get(t, "/private", access)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with valid session, got %d", resp.StatusCode)
	}
}

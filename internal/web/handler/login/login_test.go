package login

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ecotrack/ecotrack/internal/config"
	"github.com/ecotrack/ecotrack/internal/credstore"
	"github.com/ecotrack/ecotrack/internal/db/models"
	"github.com/ecotrack/ecotrack/internal/ratelimit"
	"github.com/ecotrack/ecotrack/internal/token"
	"github.com/ecotrack/ecotrack/internal/web/handler"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("failed to migrate user model: %v", err)
	}

	return db
}

func newTestDeps(t *testing.T, devMode bool) *handler.Deps {
	t.Helper()

	return &handler.Deps{
		Cfg: &config.Config{
			DevMode: devMode,
			Webserver: config.Webserver{
				URL:           "http://localhost:8080",
				Port:          8080,
				ClientBaseURL: "http://localhost:5173",
			},
		},
		Users:  credstore.New(newTestDB(t)),
		Tokens: token.New("access-secret", "refresh-secret", 0, 0),
	}
}

func performLogin(t *testing.T, app *fiber.App, email, password string) (*http.Response, map[string]interface{}) {
	t.Helper()

	payload := `{"email":"` + email + `","password":"` + password + `"}`

	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(resp.Body)

	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("response is not JSON: %q", raw)
	}

	return resp, body
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}

	return nil
}

func TestPost_Success_SetsBothCookies(t *testing.T) {
	deps := newTestDeps(t, false)
	app := fiber.New()

	var s Service
	if err := s.Init(app, deps); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if _, err := deps.Users.Create("bob", "bob@example.com", "s3cr3t"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	resp, body := performLogin(t, app, "bob@example.com", "s3cr3t")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	access := cookieByName(resp, handler.AccessCookie)
	if access == nil || access.Value == "" {
		t.Fatal("expected access cookie")
	}

	refreshCookie := cookieByName(resp, handler.RefreshCookie)
	if refreshCookie == nil || refreshCookie.Value == "" {
		t.Fatal("expected refresh cookie")
	}

	for _, cookie := range []*http.Cookie{access, refreshCookie} {
		if !cookie.HttpOnly {
			t.Fatalf("cookie %s must be HttpOnly", cookie.Name)
		}

		if cookie.SameSite != http.SameSiteStrictMode {
			t.Fatalf("cookie %s must be SameSite=Strict", cookie.Name)
		}

		if !cookie.Secure {
			t.Fatalf("cookie %s must be Secure outside dev mode", cookie.Name)
		}
	}

	// the cookies carry verifiable tokens of the right kind
	if _, err := deps.Tokens.Verify(access.Value, token.Access); err != nil {
		t.Fatalf("access cookie does not verify: %v", err)
	}

	if _, err := deps.Tokens.Verify(refreshCookie.Value, token.Refresh); err != nil {
		t.Fatalf("refresh cookie does not verify: %v", err)
	}

	user, ok := body["user"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected user object, got %v", body["user"])
	}

	if user["username"] != "bob" {
		t.Fatalf("expected bob, got %v", user["username"])
	}

	for key := range user {
		if strings.Contains(strings.ToLower(key), "password") {
			t.Fatalf("user payload leaks %q", key)
		}
	}
}

func TestPost_DevModeDisablesSecure(t *testing.T) {
	deps := newTestDeps(t, true)
	app := fiber.New()

	var s Service
	if err := s.Init(app, deps); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if _, err := deps.Users.Create("carol", "carol@example.com", "passw0rd"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	resp, _ := performLogin(t, app, "carol@example.com", "passw0rd")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	if cookie := cookieByName(resp, handler.AccessCookie); cookie == nil || cookie.Secure {
		t.Fatal("dev mode must not set the Secure flag")
	}
}

func TestPost_UniformRejection(t *testing.T) {
	deps := newTestDeps(t, false)
	app := fiber.New()

	var s Service
	if err := s.Init(app, deps); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if _, err := deps.Users.Create("dave", "dave@example.com", "correct1"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	respWrong, bodyWrong := performLogin(t, app, "dave@example.com", "wrong")
	respUnknown, bodyUnknown := performLogin(t, app, "nobody@example.com", "whatever")

	// wrong password and unknown email must be indistinguishable
	if respWrong.StatusCode != http.StatusUnauthorized || respUnknown.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", respWrong.StatusCode, respUnknown.StatusCode)
	}

	if bodyWrong["error"] != "Invalid credentials" || bodyUnknown["error"] != "Invalid credentials" {
		t.Fatalf("rejection bodies differ: %v vs %v", bodyWrong, bodyUnknown)
	}

	if len(respWrong.Cookies()) != 0 {
		t.Fatal("failed login must not set cookies")
	}
}

func TestPost_RateLimited(t *testing.T) {
	deps := newTestDeps(t, false)
	deps.LoginLimiter = ratelimit.New(ratelimit.Config{
		Max:       5,
		Window:    15 * time.Minute,
		Message:   "Too many login attempts, please try again later.",
		KeyPrefix: "login",
	}, ratelimit.NewMemoryStore())

	app := fiber.New()

	var s Service
	if err := s.Init(app, deps); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if _, err := deps.Users.Create("erin", "erin@example.com", "hunter22"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	// five attempts get a normal credential check
	for i := 0; i < 5; i++ {
		resp, _ := performLogin(t, app, "erin@example.com", "wrong")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, resp.StatusCode)
		}
	}

	// the sixth is rejected before credentials are even looked at
	resp, body := performLogin(t, app, "erin@example.com", "hunter22")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on 6th attempt, got %d", resp.StatusCode)
	}

	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	if body["error"] != "Too Many Requests. Please try again later." {
		t.Fatalf("unexpected 429 body: %v", body)
	}
}

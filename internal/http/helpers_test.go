package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"detailhub/internal/config"
	"detailhub/internal/http/handlers"
	"detailhub/internal/repos"
)

const (
	adminEmail = "admin@studio.test"
	adminPass  = "Adm1n!pass"
	staffPass  = "Staff!2026x"
)

type testEnv struct {
	app  *fiber.App
	deps *handlers.Deps
	db   *sqlx.DB
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		StudioName:   "Test Studio",
		MediaDir:     t.TempDir(),
		BodyLimitMB:  8,
		JWTSecret:    "test-secret",
		JWTTTL:       time.Hour,
		TaxRate:      decimal.RequireFromString("0.18"),
		LoginRateMax: 5,
		BookRateMax:  10,
	}
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	return newEnvWith(t, testConfig(t))
}

func newEnvWith(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := repos.SeedAdmin(context.Background(), db, adminEmail, adminPass); err != nil {
		t.Fatal(err)
	}
	deps := handlers.NewDeps(db, cfg, nil)
	return &testEnv{app: handlers.NewApp(deps), deps: deps, db: db}
}

// do sends a JSON request; body may be nil, a string or any value to marshal.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	decode(t, resp, &out)
	return out.Token
}

// staffToken creates a staff member with the given position and logs in.
func (e *testEnv) staffToken(t *testing.T, admin, email, position string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/staff", admin, map[string]string{
		"name": "Staff " + position, "email": email, "position": position, "password": staffPass,
	})
	expectStatus(t, resp, http.StatusCreated)
	return e.login(t, email, staffPass)
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func errorOf(t *testing.T, resp *http.Response) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	decode(t, resp, &out)
	return out.Error
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status: want %d, got %d (%s)", want, resp.StatusCode, body)
	}
}

type logEntry struct {
	Level  string                 `json:"level"`
	Action string                 `json:"action"`
	UserID string                 `json:"user_id"`
	Role   string                 `json:"role"`
	Fields map[string]interface{} `json:"fields"`
}

// capture logs by temporarily replacing the standard logger output
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func findLog(entries []logEntry, level, action string) *logEntry {
	for i := range entries {
		if entries[i].Level == level && entries[i].Action == action {
			return &entries[i]
		}
	}
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

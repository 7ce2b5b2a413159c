package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/wolvesgale/ToDo-Appli/internal/infrastructure/config"
)

func loadConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(context.Background(), envconfig.MapLookuper(env))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

// New registers HTTP metrics on the default registry, so the whole process
// is exercised from a single test.
func TestNew_MemoryBackendWithSeed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := loadConfig(t, map[string]string{"STORE_BACKEND": "memory", "SEED_SAMPLE_DATA": "true"})
	a, err := New(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if a.storage.backend != config.BackendMemory {
		t.Fatalf("expected memory backend, got %s", a.storage.backend)
	}
	if _, ok := a.storage.checks["store"]; !ok {
		t.Fatal("expected the store in readiness checks")
	}

	get := func(path string, dst any) int {
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
		if dst != nil {
			_ = json.Unmarshal(env.Data, dst)
		}
		return rec.Code
	}

	var projects []struct {
		ID      string `json:"id"`
		OwnerID string `json:"ownerId"`
	}
	if code := get("/v1/projects", &projects); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(projects) != 2 || projects[0].OwnerID != "user1" {
		t.Fatalf("expected two seeded projects owned by user1, got %+v", projects)
	}

	var tenants []struct {
		ID string `json:"id"`
	}
	if code := get("/v1/tenants", &tenants); code != http.StatusOK || len(tenants) != 1 {
		t.Fatalf("expected the seeded tenant, got %d %+v", code, tenants)
	}
	if code := get("/v1/tenants/"+tenants[0].ID+"/projects", &projects); code != http.StatusOK || len(projects) != 1 {
		t.Fatalf("expected one project filed under the tenant, got %d %+v", code, projects)
	}

	var me struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if code := get("/v1/me", &me); code != http.StatusOK || me.User.Email != "admin@example.com" {
		t.Fatalf("expected the dev user, got %d %+v", code, me)
	}

	if code := get("/health/ready", nil); code != http.StatusOK {
		t.Fatalf("readiness: expected 200, got %d", code)
	}
}

func TestNewIdentity(t *testing.T) {
	e := echo.New()

	dev, err := newIdentity(context.Background(), config.AuthConfig{Mode: config.AuthDev, DevUserID: "user7"})
	if err != nil {
		t.Fatalf("dev identity: %v", err)
	}
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	var seen string
	_ = dev(func(c echo.Context) error { seen, _ = c.Get("user_id").(string); return nil })(c)
	if seen != "user7" {
		t.Fatalf("expected user7, got %q", seen)
	}

	hs, err := newIdentity(context.Background(), config.AuthConfig{Mode: config.AuthHS256, JWTSecret: "s"})
	if err != nil {
		t.Fatalf("hs256 identity: %v", err)
	}
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if err := hs(func(echo.Context) error { return nil })(c); err == nil {
		t.Fatal("expected a missing bearer token to be rejected")
	}
}

func TestOpenStorage_UnreachableRedisFailsStartup(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"STORE_BACKEND": "memory", "REDIS_ADDR": "127.0.0.1:1"})
	if _, err := openStorage(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected an error for an unreachable redis")
	}
}

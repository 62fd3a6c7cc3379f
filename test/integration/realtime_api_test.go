package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/bootstrap"
	"github.com/filezingme/BibiChat-sub000/internal/config"
	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/pkg/serverutils"
	"github.com/filezingme/BibiChat-sub000/internal/server"
	"github.com/filezingme/BibiChat-sub000/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "integration-secret"

type apiEnv struct {
	app    *fiber.App
	tokens *serverutils.TokenManager
	master uuid.UUID
	alice  uuid.UUID
	bob    uuid.UUID
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	dir := t.TempDir()
	cfg := &config.Config{
		App: config.AppConfig{
			Port:               "0",
			Environment:        "test",
			LogFilePath:        filepath.Join(dir, "app.log"),
			RealtimeLogPath:    filepath.Join(dir, "realtime.log"),
			CorsAllowedOrigins: "*",
		},
		Auth: config.AuthConfig{JWTSecret: jwtSecret, TokenTTL: time.Hour},
		Realtime: config.RealtimeConfig{
			PresenceThreshold: time.Minute,
			SweepSpec:         "@every 1h",
			SendBuffer:        16,
			UserCacheTTL:      time.Minute,
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	container, err := bootstrap.NewContainer(ctx, db, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		cancel()
		container.Close()
	})

	return &apiEnv{
		app:    server.New(cfg, container).GetApp(),
		tokens: serverutils.NewTokenManager(jwtSecret, time.Hour),
		master: testutil.SeedUser(t, db, "Master", entity.UserRoleMaster),
		alice:  testutil.SeedUser(t, db, "Alice", entity.UserRoleTenant),
		bob:    testutil.SeedUser(t, db, "Bob", entity.UserRoleTenant),
	}
}

func (e *apiEnv) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	role := entity.UserRoleTenant
	if userID == e.master {
		role = entity.UserRoleMaster
	}
	token, err := e.tokens.Issue(userID, string(role))
	require.NoError(t, err)
	return token
}

// call performs one request and decodes the JSON body into a generic map.
func (e *apiEnv) call(t *testing.T, method, path string, as uuid.UUID, body string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+e.token(t, as))
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestNotificationsAPI(t *testing.T) {
	env := newAPIEnv(t)

	status, _ := env.call(t, http.MethodGet, "/api/notifications", uuid.Nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	create := `{"targetScope":"all","title":"Maintenance","body":"Tonight at 22:00"}`
	status, _ = env.call(t, http.MethodPost, "/api/notifications", env.alice, create)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := env.call(t, http.MethodPost, "/api/notifications", env.master, `{"targetScope":"all"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])

	status, body = env.call(t, http.MethodPost, "/api/notifications", env.master, create)
	require.Equal(t, http.StatusCreated, status, body)

	status, body = env.call(t, http.MethodGet, "/api/notifications?page=1&limit=10", env.alice, "")
	require.Equal(t, http.StatusOK, status)
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["total"])
	assert.Equal(t, float64(10), pagination["limit"])
	assert.Equal(t, float64(1), pagination["totalPages"])

	first := data[0].(map[string]interface{})
	assert.Equal(t, "Maintenance", first["title"])
	assert.Equal(t, false, first["isRead"])

	_, body = env.call(t, http.MethodGet, "/api/notifications/unread-count", env.alice, "")
	assert.Equal(t, float64(1), body["data"].(map[string]interface{})["count"])

	status, _ = env.call(t, http.MethodPatch, "/api/notifications/"+first["id"].(string)+"/read", env.alice, "")
	assert.Equal(t, http.StatusOK, status)

	_, body = env.call(t, http.MethodGet, "/api/notifications/unread-count", env.alice, "")
	assert.Equal(t, float64(0), body["data"].(map[string]interface{})["count"])
	_, body = env.call(t, http.MethodGet, "/api/notifications/unread-count", env.bob, "")
	assert.Equal(t, float64(1), body["data"].(map[string]interface{})["count"], "read state is per viewer")

	status, _ = env.call(t, http.MethodPatch, "/api/notifications/not-an-id/read", env.alice, "")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = env.call(t, http.MethodPatch, "/api/notifications/"+uuid.NewString()+"/read", env.alice, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.call(t, http.MethodGet, "/api/notifications/sent", env.master, "")
	require.Equal(t, http.StatusOK, status)
	sent := body["data"].([]interface{})
	require.Len(t, sent, 1)
	assert.Equal(t, float64(1), sent[0].(map[string]interface{})["readCount"])
}

func TestDirectMessagesAPI(t *testing.T) {
	env := newAPIEnv(t)

	send := `{"receiverId":"` + env.bob.String() + `","content":"hello bob"}`
	status, body := env.call(t, http.MethodPost, "/api/dm", env.alice, send)
	require.Equal(t, http.StatusCreated, status, body)
	msg := body["data"].(map[string]interface{})
	assert.Equal(t, "text", msg["type"])

	reply := `{"receiverId":"` + env.bob.String() + `","content":"again","replyToId":"01HZZZZZZZZZZZZZZZZZZZZZZZ"}`
	status, _ = env.call(t, http.MethodPost, "/api/dm", env.alice, reply)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	self := `{"receiverId":"` + env.alice.String() + `","content":"me"}`
	status, _ = env.call(t, http.MethodPost, "/api/dm", env.alice, self)
	assert.Equal(t, http.StatusBadRequest, status)

	_, body = env.call(t, http.MethodGet, "/api/dm/unread-count", env.bob, "")
	assert.Equal(t, float64(1), body["data"].(map[string]interface{})["count"])

	status, body = env.call(t, http.MethodPost, "/api/dm/messages/"+msg["id"].(string)+"/reactions", env.bob, `{"emoji":"👍"}`)
	require.Equal(t, http.StatusOK, status, body)
	reactions := body["data"].(map[string]interface{})["reactions"].([]interface{})
	assert.Len(t, reactions, 1)

	status, body = env.call(t, http.MethodGet, "/api/dm/"+env.alice.String()+"/history", env.bob, "")
	require.Equal(t, http.StatusOK, status)
	history := body["data"].([]interface{})
	require.Len(t, history, 1)
	assert.Equal(t, "hello bob", history[0].(map[string]interface{})["content"])

	_, body = env.call(t, http.MethodGet, "/api/dm/unread-count", env.bob, "")
	assert.Equal(t, float64(0), body["data"].(map[string]interface{})["count"], "opening history marks it read")

	status, _ = env.call(t, http.MethodPost, "/api/dm/messages/"+msg["id"].(string)+"/reactions", env.master, `{"emoji":"👍"}`)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestGatewayAndPresenceAPI(t *testing.T) {
	env := newAPIEnv(t)

	status, _ := env.call(t, http.MethodGet, "/api/ws?auth="+env.token(t, env.alice), uuid.Nil, "")
	assert.Equal(t, http.StatusUpgradeRequired, status)

	status, body := env.call(t, http.MethodGet, "/api/presence/"+env.alice.String(), env.bob, "")
	require.Equal(t, http.StatusOK, status)
	presence := body["data"].(map[string]interface{})
	assert.Equal(t, false, presence["online"])
	assert.Nil(t, presence["lastActiveAt"])

	status, _ = env.call(t, http.MethodGet, "/metrics", uuid.Nil, "")
	assert.Equal(t, http.StatusOK, status)
}

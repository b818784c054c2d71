package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inventory-backend/internal/auth"
	"inventory-backend/internal/config"
	"inventory-backend/internal/models"
	"inventory-backend/internal/notify"
	"inventory-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	queue *notify.MemoryQueue
	token string
	me    models.User
}

func newTestEnv(t *testing.T) *testEnv {
	db := testutil.OpenDB(t)
	q := notify.NewMemoryQueue(10)
	cfg := &config.Config{JWTSecret: testSecret, JWTTTLMin: 60}

	hash, err := auth.HashPassword("Admin123!")
	require.NoError(t, err)
	me := models.User{Username: "admin", Name: "Admin", PasswordHash: hash, Role: models.RoleAdmin, IsAdmin: true}
	require.NoError(t, db.Create(&me).Error)
	token, err := auth.GenerateToken(testSecret, time.Hour, &me)
	require.NoError(t, err)

	app := fiber.New()
	adm := app.Group("/api/admin", auth.JWTMiddleware(cfg), auth.RequireAdmin())
	adm.Get("/users", ListUsersHandler(db))
	adm.Post("/users", CreateUserHandler(db))
	adm.Patch("/users/:id", UpdateUserHandler(db))
	adm.Delete("/users/:id", DeleteUserHandler(db))
	adm.Get("/recipients", ListRecipientsHandler(db))
	adm.Post("/recipients", CreateRecipientHandler(db))
	adm.Patch("/recipients/:id", UpdateRecipientHandler(db))
	adm.Delete("/recipients/:id", DeleteRecipientHandler(db))
	adm.Post("/test-email/stock", StockTestEmailHandler(q))
	adm.Post("/test-email/low-stock", LowStockTestEmailHandler(q))

	return &testEnv{app: app, db: db, queue: q, token: token, me: me}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+e.token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, b
}

func TestUserManagement(t *testing.T) {
	e := newTestEnv(t)

	code, body := e.do(t, http.MethodPost, "/api/admin/users", `{"username":"bob","password":"password1","name":"Bob","email":"bob@x.io"}`)
	require.Equal(t, fiber.StatusCreated, code, string(body))
	var bob auth.UserResponse
	require.NoError(t, json.Unmarshal(body, &bob))
	assert.Equal(t, models.RoleStaff, bob.Role)
	assert.False(t, bob.IsAdmin)

	code, _ = e.do(t, http.MethodPost, "/api/admin/users", `{"username":"bob","password":"password1","name":"Bob 2"}`)
	assert.Equal(t, fiber.StatusConflict, code)
	code, _ = e.do(t, http.MethodPost, "/api/admin/users", `{"username":"eve","password":"short","name":"Eve"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = e.do(t, http.MethodPost, "/api/admin/users", `{"username":"eve","password":"password1","name":"Eve","role":"root"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body = e.do(t, http.MethodPatch, "/api/admin/users/2", `{"role":"admin","is_admin":true,"password":"newpassword"}`)
	require.Equal(t, fiber.StatusOK, code, string(body))
	require.NoError(t, json.Unmarshal(body, &bob))
	assert.True(t, bob.IsAdmin)

	var stored models.User
	require.NoError(t, e.db.First(&stored, bob.ID).Error)
	assert.True(t, auth.VerifyPassword("newpassword", stored.PasswordHash))

	code, _ = e.do(t, http.MethodPatch, "/api/admin/users/1", `{"is_admin":false}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = e.do(t, http.MethodDelete, "/api/admin/users/1", "")
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = e.do(t, http.MethodDelete, "/api/admin/users/2", "")
	assert.Equal(t, fiber.StatusNoContent, code)
	code, _ = e.do(t, http.MethodDelete, "/api/admin/users/2", "")
	assert.Equal(t, fiber.StatusNotFound, code)

	code, body = e.do(t, http.MethodGet, "/api/admin/users", "")
	require.Equal(t, fiber.StatusOK, code)
	var users []auth.UserResponse
	require.NoError(t, json.Unmarshal(body, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Username)
}

func TestDeleteUser_KeepsLedgerRows(t *testing.T) {
	e := newTestEnv(t)
	cat := testutil.SeedCategory(t, e.db, "Cables", "", 0)
	it := testutil.SeedItem(t, e.db, cat.ID, "A", 1)

	staff := models.User{Username: "carl", Name: "Carl", PasswordHash: "x"}
	require.NoError(t, e.db.Create(&staff).Error)
	require.NoError(t, e.db.Create(&models.Transaction{ItemID: it.ID, QtyChange: 1, PerformedBy: &staff.ID}).Error)

	code, _ := e.do(t, http.MethodDelete, "/api/admin/users/2", "")
	require.Equal(t, fiber.StatusNoContent, code)

	var tx models.Transaction
	require.NoError(t, e.db.First(&tx, "item_id = ?", it.ID).Error)
	assert.Nil(t, tx.PerformedBy)
}

func TestRecipients(t *testing.T) {
	e := newTestEnv(t)

	code, body := e.do(t, http.MethodPost, "/api/admin/recipients", `{"email":"ops@x.io"}`)
	require.Equal(t, fiber.StatusCreated, code, string(body))
	code, _ = e.do(t, http.MethodPost, "/api/admin/recipients", `{"email":"ops@x.io"}`)
	assert.Equal(t, fiber.StatusConflict, code)
	code, _ = e.do(t, http.MethodPost, "/api/admin/recipients", `{"email":"not-an-email"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body = e.do(t, http.MethodPatch, "/api/admin/recipients/1", `{"active":false}`)
	require.Equal(t, fiber.StatusOK, code, string(body))

	active, err := notify.DBRecipients{DB: e.db}.ActiveRecipients(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)

	code, _ = e.do(t, http.MethodDelete, "/api/admin/recipients/1", "")
	assert.Equal(t, fiber.StatusNoContent, code)
	code, _ = e.do(t, http.MethodPatch, "/api/admin/recipients/1", `{"active":true}`)
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestTestEmailEndpointsEnqueue(t *testing.T) {
	e := newTestEnv(t)

	code, body := e.do(t, http.MethodPost, "/api/admin/test-email/stock?code=MISABC0001&new_qty=2", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"queued":true,"type":"stock_change"}`, string(body))

	code, _ = e.do(t, http.MethodPost, "/api/admin/test-email/low-stock", "")
	require.Equal(t, fiber.StatusOK, code)

	require.NoError(t, e.queue.Close())
	var kinds []notify.Kind
	for {
		msg, err := e.queue.Dequeue(context.Background())
		if errors.Is(err, notify.ErrQueueClosed) {
			break
		}
		require.NoError(t, err)
		kinds = append(kinds, msg.Kind)
	}
	assert.Equal(t, []notify.Kind{notify.KindStockChange, notify.KindLowStock}, kinds)
}

func TestAdminRoutesRejectStaff(t *testing.T) {
	e := newTestEnv(t)
	staff := models.User{ID: 5, Username: "sam", Role: models.RoleStaff}
	token, err := auth.GenerateToken(testSecret, time.Hour, &staff)
	require.NoError(t, err)
	e.token = token

	code, _ := e.do(t, http.MethodGet, "/api/admin/users", "")
	assert.Equal(t, fiber.StatusForbidden, code)
}

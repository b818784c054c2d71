package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inventory-backend/internal/models"
	"inventory-backend/internal/notify"
	"inventory-backend/internal/stock"
	"inventory-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	queue *notify.MemoryQueue
}

func newTestEnv(t *testing.T) *testEnv {
	db := testutil.OpenDB(t)
	q := notify.NewMemoryQueue(100)
	svc := stock.NewService(db, q, stock.NewDetector(stock.PolicyCrossingOrDecrement))

	app := fiber.New()
	api := app.Group("/api")

	cats := api.Group("/categories")
	cats.Get("/", ListCategoriesHandler(db))
	cats.Post("/", CreateCategoryHandler(db))
	cats.Get("/:id", GetCategoryHandler(db))
	cats.Patch("/:id", UpdateCategoryHandler(db))
	cats.Delete("/:id", DeleteCategoryHandler(db))
	cats.Get("/:id/summary", CategorySummaryHandler(svc))
	cats.Get("/:id/next-code", NextItemCodeHandler(db))

	items := api.Group("/items")
	items.Get("/", ListItemsHandler(db))
	items.Get("/export", ExportItemsHandler(db))
	items.Post("/import-adjustments", ImportAdjustmentsHandler(db, svc))
	items.Post("/", CreateItemHandler(db, q))
	items.Get("/:id", GetItemHandler(db))
	items.Patch("/:id", UpdateItemHandler(db))
	items.Delete("/:id", DeleteItemHandler(db, q))
	items.Patch("/:id/adjust", AdjustStockHandler(svc))
	items.Get("/:id/transactions", ListTransactionsHandler(db))

	return &testEnv{app: app, db: db, queue: q}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, b
}

func (e *testEnv) messages(t *testing.T) []notify.Message {
	t.Helper()
	require.NoError(t, e.queue.Close())
	var out []notify.Message
	for {
		msg, err := e.queue.Dequeue(context.Background())
		if errors.Is(err, notify.ErrQueueClosed) {
			return out
		}
		require.NoError(t, err)
		out = append(out, msg)
	}
}

func TestCategoryCRUD(t *testing.T) {
	e := newTestEnv(t)

	code, body := e.do(t, http.MethodPost, "/api/categories", `{"name":"Cables","code":"cab","buffer":10}`)
	require.Equal(t, fiber.StatusCreated, code, string(body))
	var cat CategoryResponse
	require.NoError(t, json.Unmarshal(body, &cat))
	assert.Equal(t, "cab", *cat.Code)

	code, _ = e.do(t, http.MethodPost, "/api/categories", `{"name":"Cables"}`)
	assert.Equal(t, fiber.StatusConflict, code)

	code, _ = e.do(t, http.MethodPost, "/api/categories", `{"name":"X"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = e.do(t, http.MethodPost, "/api/categories", `{"name":"Negative","buffer":-1}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body = e.do(t, http.MethodPatch, "/api/categories/1", `{"buffer":4,"code":""}`)
	require.Equal(t, fiber.StatusOK, code, string(body))
	require.NoError(t, json.Unmarshal(body, &cat))
	assert.Equal(t, 4, cat.Buffer)
	assert.Nil(t, cat.Code)
	assert.Equal(t, "Cables", cat.Name)

	code, _ = e.do(t, http.MethodGet, "/api/categories/99", "")
	assert.Equal(t, fiber.StatusNotFound, code)

	testutil.SeedItem(t, e.db, cat.ID, "A", 1)
	code, _ = e.do(t, http.MethodDelete, "/api/categories/1", "")
	assert.Equal(t, fiber.StatusConflict, code)

	require.NoError(t, e.db.Where("category_id = ?", cat.ID).Delete(&models.Item{}).Error)
	code, _ = e.do(t, http.MethodDelete, "/api/categories/1", "")
	assert.Equal(t, fiber.StatusNoContent, code)

	var logs int64
	require.NoError(t, e.db.Model(&models.AuditLog{}).Where("entity_type = ?", "category").Count(&logs).Error)
	assert.Equal(t, int64(3), logs)
}

func TestCreateItem_GeneratesCodeAndNotifies(t *testing.T) {
	e := newTestEnv(t)
	cat := testutil.SeedCategory(t, e.db, "Processors", "cpu", 0)
	testutil.SeedItem(t, e.db, cat.ID, "MISCPU0001", 1)

	code, body := e.do(t, http.MethodPost, "/api/items", `{"name":"Ryzen","quantity":3,"category_id":1}`)
	require.Equal(t, fiber.StatusCreated, code, string(body))
	var it ItemResponse
	require.NoError(t, json.Unmarshal(body, &it))
	assert.Equal(t, "MISCPU0002", it.Code)
	assert.Equal(t, 3, it.Quantity)

	code, _ = e.do(t, http.MethodPost, "/api/items", `{"code":"MISCPU0002","name":"Dup","category_id":1}`)
	assert.Equal(t, fiber.StatusConflict, code)

	code, _ = e.do(t, http.MethodPost, "/api/items", `{"name":"Orphan","category_id":77}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = e.do(t, http.MethodPost, "/api/items", `{"name":"Neg","quantity":-1,"category_id":1}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	msgs := e.messages(t)
	require.Len(t, msgs, 1)
	assert.Equal(t, notify.KindItemCreated, msgs[0].Kind)
	assert.Equal(t, "Processors", msgs[0].Fields.Str("category_name"))
}

func TestListAndUpdateItems(t *testing.T) {
	e := newTestEnv(t)
	cat := testutil.SeedCategory(t, e.db, "Cables", "", 0)
	other := testutil.SeedCategory(t, e.db, "Adapters", "", 0)
	testutil.SeedItem(t, e.db, cat.ID, "HDMI-1", 1)
	testutil.SeedItem(t, e.db, cat.ID, "VGA-1", 1)

	code, body := e.do(t, http.MethodGet, "/api/items?q=hdmi", "")
	require.Equal(t, fiber.StatusOK, code)
	var items []ItemResponse
	require.NoError(t, json.Unmarshal(body, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "HDMI-1", items[0].Code)

	code, _ = e.do(t, http.MethodGet, "/api/items?limit=500", "")
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = e.do(t, http.MethodPatch, "/api/items/1", `{"quantity":50}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, body = e.do(t, http.MethodPatch, "/api/items/1", `{"name":"HDMI 2m","category_id":2}`)
	require.Equal(t, fiber.StatusOK, code, string(body))
	var it ItemResponse
	require.NoError(t, json.Unmarshal(body, &it))
	assert.Equal(t, "HDMI 2m", it.Name)
	assert.Equal(t, other.ID, it.CategoryID)
	assert.Equal(t, 1, it.Quantity)

	code, _ = e.do(t, http.MethodPatch, "/api/items/1", `{"category_id":99}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = e.do(t, http.MethodPatch, "/api/items/77", `{"name":"ghost"}`)
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestAdjustEndpoint(t *testing.T) {
	e := newTestEnv(t)
	cat := testutil.SeedCategory(t, e.db, "Cables", "CAB", 10)
	a := testutil.SeedItem(t, e.db, cat.ID, "A", 7)
	testutil.SeedItem(t, e.db, cat.ID, "B", 5)

	code, _ := e.do(t, http.MethodPatch, "/api/items/1/adjust?change=0", "")
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = e.do(t, http.MethodPatch, "/api/items/1/adjust?change=abc", "")
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = e.do(t, http.MethodPatch, "/api/items/1/adjust?change=-8", "")
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = e.do(t, http.MethodPatch, "/api/items/42/adjust?change=1", "")
	assert.Equal(t, fiber.StatusNotFound, code)

	code, body := e.do(t, http.MethodPatch, "/api/items/1/adjust?change=-3&note=used", "")
	require.Equal(t, fiber.StatusOK, code, string(body))
	var res AdjustResponse
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, 4, res.Quantity)
	assert.Equal(t, 7, res.OldQuantity)
	assert.Equal(t, 9, res.CategoryTotal)
	assert.True(t, res.LowStock)
	assert.Equal(t, stock.OutcomeNotified, res.Notification)

	code, body = e.do(t, http.MethodGet, "/api/items/1/transactions", "")
	require.Equal(t, fiber.StatusOK, code)
	var txs []TransactionResponse
	require.NoError(t, json.Unmarshal(body, &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, -3, txs[0].QtyChange)
	assert.Equal(t, "used", txs[0].Note)
	assert.Equal(t, a.ID, txs[0].ItemID)

	code, body = e.do(t, http.MethodGet, "/api/categories/1/summary", "")
	require.Equal(t, fiber.StatusOK, code)
	var sum stock.Summary
	require.NoError(t, json.Unmarshal(body, &sum))
	assert.Equal(t, 9, sum.TotalQty)
	assert.True(t, sum.Low)

	low := 0
	for _, m := range e.messages(t) {
		if m.Kind == notify.KindCategoryLowStock {
			low++
		}
	}
	assert.Equal(t, 1, low)
}

func TestDeleteItem_RemovesLedgerAndNotifies(t *testing.T) {
	e := newTestEnv(t)
	cat := testutil.SeedCategory(t, e.db, "Cables", "", 0)
	a := testutil.SeedItem(t, e.db, cat.ID, "A", 7)

	code, _ := e.do(t, http.MethodPatch, "/api/items/1/adjust?change=2", "")
	require.Equal(t, fiber.StatusOK, code)

	code, _ = e.do(t, http.MethodDelete, "/api/items/1", "")
	require.Equal(t, fiber.StatusNoContent, code)

	var n int64
	require.NoError(t, e.db.Model(&models.Transaction{}).Where("item_id = ?", a.ID).Count(&n).Error)
	assert.Zero(t, n)

	code, _ = e.do(t, http.MethodDelete, "/api/items/1", "")
	assert.Equal(t, fiber.StatusNotFound, code)

	msgs := e.messages(t)
	last := msgs[len(msgs)-1]
	assert.Equal(t, notify.KindItemDeleted, last.Kind)
	assert.Equal(t, 9, last.Fields.Int("last_known_qty"))
}

func TestNextCodeEndpoint(t *testing.T) {
	e := newTestEnv(t)
	testutil.SeedCategory(t, e.db, "Processors", "cpu", 0)
	testutil.SeedCategory(t, e.db, "Misc", "", 0)

	code, body := e.do(t, http.MethodGet, "/api/categories/1/next-code", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"code":"MISCPU0001"}`, string(body))

	code, _ = e.do(t, http.MethodGet, "/api/categories/2/next-code", "")
	assert.Equal(t, fiber.StatusBadRequest, code)
	code, _ = e.do(t, http.MethodGet, "/api/categories/3/next-code", "")
	assert.Equal(t, fiber.StatusNotFound, code)
}

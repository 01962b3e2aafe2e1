package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/cache"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/presence"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/scheduler"
	"github.com/noloworld/oribeti-app-sub000/internal/interfaces/http/dto"
	"github.com/noloworld/oribeti-app-sub000/internal/interfaces/http/handler"
	"github.com/noloworld/oribeti-app-sub000/internal/interfaces/http/middleware"
	"github.com/noloworld/oribeti-app-sub000/internal/interfaces/http/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

type apiSale struct {
	ID          string             `json:"id"`
	FaceValue   valueobject.Amount `json:"face_value"`
	Paid        valueobject.Amount `json:"paid"`
	Outstanding valueobject.Amount `json:"outstanding"`
	Status      string             `json:"status"`
	Payments    []struct {
		Amount   valueobject.Amount `json:"amount"`
		Sequence int64              `json:"sequence"`
	} `json:"payments"`
}

type apiClient struct {
	t      *testing.T
	engine *gin.Engine
}

func (a apiClient) do(method, path string, body any) (int, apiEnvelope) {
	a.t.Helper()
	return a.doWithKey(method, path, "", body)
}

// doWithKey sends the request with an Idempotency-Key header when key is set
func (a apiClient) doWithKey(method, path, key string, body any) (int, apiEnvelope) {
	a.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(a.t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(middleware.IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env apiEnvelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func newAPI(t *testing.T, testDB *TestDB) apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	svc := newServices(testDB.DB, actor)
	sweeps, err := scheduler.NewStaleDebtScheduler(scheduler.StaleDebtSchedulerConfig{
		Interval:     time.Hour,
		SweepTimeout: time.Minute,
	}, svc.notifier, nil)
	require.NoError(t, err)

	tracker := presence.NewMemoryTracker(time.Minute, 0)
	t.Cleanup(func() { _ = tracker.Close() })
	keys := cache.NewMemoryStore(0)
	t.Cleanup(func() { _ = keys.Close() })

	engine := gin.New()
	engine.Use(middleware.RequestID())
	router.Mount(engine, router.Handlers{
		Clients:       handler.NewClientHandler(svc.clients),
		Sales:         handler.NewSaleHandler(svc.sales),
		Reports:       handler.NewReportHandler(svc.reports, 5),
		Raffles:       handler.NewRaffleHandler(svc.raffles),
		Presence:      handler.NewPresenceHandler(tracker),
		Notifications: handler.NewNotificationHandler(sweeps, svc.notes),
		System: handler.NewSystemHandler("ledger", "test", map[string]handler.HealthCheck{
			"database": func(context.Context) error { return testDB.Database.Ping() },
		}),
	}, func(c *gin.Context) {
		c.Set(middleware.ActorIDKey, actor)
		c.Next()
	}, middleware.Idempotency(keys, time.Hour, nil))
	return apiClient{t: t, engine: engine}
}

func TestAPIDebtWorkflow(t *testing.T) {
	api := newAPI(t, NewTestDB(t))
	saleDate := time.Now().AddDate(0, -3, 0).Format("2006-01-02")

	status, env := api.do(http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, status)

	status, env = api.do(http.MethodPost, "/api/v1/clients", map[string]any{"name": "Elena", "phone": "555-0101"})
	require.Equal(t, http.StatusCreated, status)
	var client struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &client))

	status, env = api.do(http.MethodPost, "/api/v1/sales", map[string]any{
		"client_id": client.ID,
		"date":      saleDate,
		"lines": []map[string]any{
			{"product_name": "Perfume", "quantity": 2, "catalog_price": "60", "final_price": "50"},
		},
	})
	require.Equal(t, http.StatusCreated, status)
	var sale apiSale
	require.NoError(t, json.Unmarshal(env.Data, &sale))
	assert.Equal(t, "100.00", sale.FaceValue.String())
	assert.Equal(t, "PENDING", sale.Status)

	paymentsPath := "/api/v1/sales/" + sale.ID + "/payments"

	t.Run("overpayment is rejected with the outstanding amount", func(t *testing.T) {
		status, env := api.do(http.MethodPost, paymentsPath, map[string]any{"amount": "150"})
		require.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, "ERR_OVERPAYMENT_REJECTED", env.Error.Code)
		assert.Equal(t, "100.00", env.Error.Details["outstanding"])
	})

	t.Run("non-positive amount is a bad request", func(t *testing.T) {
		status, _ := api.do(http.MethodPost, paymentsPath, map[string]any{"amount": 0})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("partial payment submitted twice is recorded once", func(t *testing.T) {
		body := map[string]any{"amount": 60, "note": "cash"}
		status, _ := api.doWithKey(http.MethodPost, paymentsPath, "form-1", body)
		require.Equal(t, http.StatusCreated, status)
		status, env := api.doWithKey(http.MethodPost, paymentsPath, "form-1", body)
		require.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "ERR_DUPLICATE_REQUEST", env.Error.Code)

		status, env = api.do(http.MethodGet, "/api/v1/sales/"+sale.ID, nil)
		require.Equal(t, http.StatusOK, status)
		var detail apiSale
		require.NoError(t, json.Unmarshal(env.Data, &detail))
		assert.Equal(t, "60.00", detail.Paid.String())
		assert.Equal(t, "40.00", detail.Outstanding.String())
		require.Len(t, detail.Payments, 1)
		assert.Equal(t, int64(1), detail.Payments[0].Sequence)
	})

	t.Run("client with sales cannot be deleted", func(t *testing.T) {
		status, env := api.do(http.MethodDelete, "/api/v1/clients/"+client.ID, nil)
		require.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, "ERR_CLIENT_HAS_SALES", env.Error.Code)
	})

	t.Run("debtors report", func(t *testing.T) {
		status, env := api.do(http.MethodGet, "/api/v1/reports/debtors", nil)
		require.Equal(t, http.StatusOK, status)
		var debtors []struct {
			ClientName       string             `json:"client_name"`
			TotalOutstanding valueobject.Amount `json:"total_outstanding"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &debtors))
		require.Len(t, debtors, 1)
		assert.Equal(t, "Elena", debtors[0].ClientName)
		assert.Equal(t, "40.00", debtors[0].TotalOutstanding.String())
	})

	t.Run("stale sweep notifies the actor once", func(t *testing.T) {
		status, env := api.do(http.MethodPost, "/api/v1/notifications/sweep", nil)
		require.Equal(t, http.StatusOK, status)
		var batch struct {
			Emitted    int  `json:"emitted"`
			Suppressed bool `json:"suppressed"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &batch))
		assert.Equal(t, 1, batch.Emitted)
		assert.False(t, batch.Suppressed)

		status, env = api.do(http.MethodPost, "/api/v1/notifications/sweep", nil)
		require.Equal(t, http.StatusOK, status)
		require.NoError(t, json.Unmarshal(env.Data, &batch))
		assert.True(t, batch.Suppressed)

		status, env = api.do(http.MethodGet, "/api/v1/notifications", nil)
		require.Equal(t, http.StatusOK, status)
		var feed []struct {
			Kind string `json:"kind"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &feed))
		require.Len(t, feed, 1)
		assert.Equal(t, "STALE_DEBT", feed[0].Kind)
	})
}

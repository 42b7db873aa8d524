package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	api "mensajero/internal/adapters/in/http"
	"mensajero/internal/adapters/out/memory"
	"mensajero/internal/core/application/usecases/commands"
	"mensajero/internal/core/application/usecases/queries"
	"mensajero/internal/core/domain/model/order"
	"mensajero/internal/core/domain/services"
	"mensajero/internal/pkg/keylock"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	orderID   = "0b8e1a52-7c55-4d0e-9c1f-5f8a34c1d2e7"
	courierID = "6f1c2b9e-3a4d-4e8f-9b0a-1c2d3e4f5a6b"

	orderIDHyphenless   = "0b8e1a527c554d0e9c1f5f8a34c1d2e7"
	courierIDHyphenless = "6f1c2b9e3a4d4e8f9b0a1c2d3e4f5a6b"
)

type recordingArchiver struct {
	mu       sync.Mutex
	archived []string
	err      error
}

func (a *recordingArchiver) Archive(_ context.Context, s order.Snapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.archived = append(a.archived, s.ID.String())
	return nil
}

func (a *recordingArchiver) ids() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.archived...)
}

type countingLimiter struct {
	mu    sync.Mutex
	count map[string]int64
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int64, _ time.Duration) (bool, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count[key]++
	return l.count[key] <= limit, l.count[key], nil
}

type testAPI struct {
	e        *echo.Echo
	server   *api.Server
	archiver *recordingArchiver
}

func newTestAPI(t *testing.T, cfg api.RouterConfig) testAPI {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := memory.NewUnitOfWorkFactory(memory.NewOrderStore())
	locks := keylock.NewStriped(16)
	archiver := &recordingArchiver{}
	archive := commands.NewArchiveOrderCommandHandler(factory, locks, archiver)

	server := api.NewServer(api.Handlers{
		CreateOrder:    commands.NewCreateOrderCommandHandler(factory, nil, logger),
		ClaimOrder:     commands.NewClaimOrderCommandHandler(factory, locks),
		MarkInTransit:  commands.NewMarkInTransitCommandHandler(factory, locks),
		MarkDelivered:  commands.NewMarkDeliveredCommandHandler(factory, locks),
		ReportLocation: commands.NewReportLocationCommandHandler(factory, locks, services.NewGeofence()),
		ArchiveOrder:   &archive,
		GetOrder:       queries.NewGetOrderQueryHandler(factory),
		ListOrders:     queries.NewListOrdersByStatusQueryHandler(factory),
	}, logger)

	return testAPI{e: api.NewRouter(server, cfg), server: server, archiver: archiver}
}

func (a testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a testAPI) createHavanaOrder(t *testing.T) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/orders", `{
		"id": "`+orderID+`",
		"items": [{"producto": "arroz", "cantidad": 2}],
		"pickup": {"lat": 23.1136, "lon": -82.3666},
		"dropoff": {"lat": 23.1200, "lon": -82.3700}
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

// decode fails on trailing data, so a response carrying two documents is caught.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, code int) api.Error {
	t.Helper()
	require.Equal(t, code, rec.Code, rec.Body.String())
	body := decode[api.Error](t, rec)
	assert.Equal(t, code, body.Code)
	assert.NotEmpty(t, body.Message)
	return body
}

func (a testAPI) status(t *testing.T, id string) string {
	t.Helper()
	rec := a.do(t, http.MethodGet, "/api/v1/orders/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[api.Order](t, rec).Status
}

func (a testAPI) countByStatus(t *testing.T, status string) int {
	t.Helper()
	rec := a.do(t, http.MethodGet, "/api/v1/orders?status="+status, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return len(decode[[]api.Order](t, rec))
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t, api.RouterConfig{})

	rec := a.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Healthy", rec.Body.String())
}

func TestCreateOrder(t *testing.T) {
	a := newTestAPI(t, api.RouterConfig{})
	a.createHavanaOrder(t)

	rec := a.do(t, http.MethodGet, "/api/v1/orders/"+orderID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[api.Order](t, rec)
	assert.Equal(t, orderID, got.ID)
	assert.Equal(t, "Available", got.Status)
	assert.Nil(t, got.CourierID)
	assert.InDelta(t, 23.1136, got.Pickup.Lat, 1e-9)
	require.Len(t, got.Items, 1)
	assert.JSONEq(t, `{"producto":"arroz","cantidad":2}`, string(got.Items[0]))
}

func TestCreateOrder_AcceptsAnyUUIDForm(t *testing.T) {
	a := newTestAPI(t, api.RouterConfig{})

	rec := a.do(t, http.MethodPost, "/api/v1/orders",
		`{"id":"`+orderIDHyphenless+`","pickup":{"lat":1,"lon":2},"dropoff":{"lat":3,"lon":4}}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decode[api.Order](t, rec)
	assert.Equal(t, orderID, got.ID)
	assert.Equal(t, []json.RawMessage{}, got.Items)
	assert.Equal(t, "Available", a.status(t, orderID))
}

func TestCreateOrder_Duplicate(t *testing.T) {
	a := newTestAPI(t, api.RouterConfig{})
	a.createHavanaOrder(t)

	rec := a.do(t, http.MethodPost, "/api/v1/orders",
		`{"id":"`+orderID+`","pickup":{"lat":0,"lon":0},"dropoff":{"lat":0,"lon":0}}`)

	requireError(t, rec, http.StatusConflict)

	original := decode[api.Order](t, a.do(t, http.MethodGet, "/api/v1/orders/"+orderID, ""))
	assert.InDelta(t, 23.1136, original.Pickup.Lat, 1e-9)
}

func TestCreateOrder_BadRequests(t *testing.T) {
	a := newTestAPI(t, api.RouterConfig{})
	id := `"id":"` + orderID + `",`

	tests := map[string]struct {
		body    string
		message string
	}{
		"malformed json":     {`{"pickup":`, "Invalid request body"},
		"missing id":         {`{"pickup":{"lat":1,"lon":1},"dropoff":{"lat":0,"lon":0}}`, "id failed on 'required'"},
		"opaque id":          {`{"id":"pedido-42","pickup":{"lat":1,"lon":1},"dropoff":{"lat":0,"lon":0}}`, "id"},
		"nil id":             {`{"id":"00000000-0000-0000-0000-000000000000","pickup":{"lat":1,"lon":1},"dropoff":{"lat":0,"lon":0}}`, "id"},
		"missing pickup":     {`{` + id + `"dropoff":{"lat":1,"lon":1}}`, "pickup failed on 'required'"},
		"latitude too large": {`{` + id + `"pickup":{"lat":91,"lon":0},"dropoff":{"lat":0,"lon":0}}`, "pickup.lat"},
		"missing longitude":  {`{` + id + `"pickup":{"lat":1},"dropoff":{"lat":0,"lon":0}}`, "pickup.lon"},
		"missing dropoff":    {`{` + id + `"pickup":{"lat":1,"lon":1}}`, "dropoff failed on 'required'"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/api/v1/orders", tc.body)

			body := requireError(t, rec, http.StatusBadRequest)
			assert.Contains(t, body.Message, tc.message)
			assert.Zero(t, a.countByStatus(t, "Available"))
		})
	}

	requireError(t, a.do(t, http.MethodGet, "/api/v1/orders/"+orderID, ""), http.StatusNotFound)
}

func TestGetOrder_Errors(t *testing.T) {
	a := newTestAPI(t, api.RouterConfig{})

	requireError(t, a.do(t, http.MethodGet, "/api/v1/orders/"+orderID, ""), http.StatusNotFound)
	requireError(t, a.do(t, http.MethodGet, "/api/v1/orders/not-a-uuid", ""), http.StatusBadRequest)
}

func TestLifecycle(t *testing.T) {
	a := newTestAPI(t, api.RouterConfig{})
	a.createHavanaOrder(t)
	base := "/api/v1/orders/" + orderID

	rec := a.do(t, http.MethodPost, base+"/claim", `{"courierId":"`+courierID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	claimed := decode[api.Order](t, rec)
	assert.Equal(t, "Assigned", claimed.Status)
	require.NotNil(t, claimed.CourierID)
	assert.Equal(t, courierID, *claimed.CourierID)

	rec = a.do(t, http.MethodPost, base+"/claim", `{"courierId":"`+courierID+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, base+"/deliver", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, base+"/in-transit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "InTransit", decode[api.Order](t, rec).Status)

	rec = a.do(t, http.MethodPost, base+"/deliver", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Delivered", decode[api.Order](t, rec).Status)

	a.server.WaitArchivals()
	assert.Equal(t, []string{orderID}, a.archiver.ids())

	final := decode[api.Order](t, a.do(t, http.MethodGet, base, ""))
	assert.Equal(t, "Delivered", final.Status)
	assert.NotNil(t, final.ArchivedAt)
}

func TestClaimOrder_Errors(t *testing.T) {
	a := newTestAPI(t, api.RouterConfig{})
	path := "/api/v1/orders/" + orderID + "/claim"

	requireError(t, a.do(t, http.MethodPost, path, `{"courierId":"`+courierID+`"}`), http.StatusNotFound)

	a.createHavanaOrder(t)

	for name, body := range map[string]string{
		"empty body":     `{}`,
		"malformed json": `{"courierId":`,
		"not a uuid":     `{"courierId":"mensajero-7"}`,
	} {
		t.Run(name, func(t *testing.T) {
			requireError(t, a.do(t, http.MethodPost, path, body), http.StatusBadRequest)
			assert.Equal(t, "Available", a.status(t, orderID))
		})
	}

	requireError(t, a.do(t, http.MethodPost, "/api/v1/orders/not-a-uuid/claim", `{"courierId":"`+courierID+`"}`),
		http.StatusBadRequest)
	assert.Equal(t, "Available", a.status(t, orderID))
}

func TestClaimOrder_NonCanonicalCourierID(t *testing.T) {
	a := newTestAPI(t, api.RouterConfig{})
	a.createHavanaOrder(t)

	rec := a.do(t, http.MethodPost, "/api/v1/orders/"+orderIDHyphenless+"/claim",
		`{"courierId":"`+courierIDHyphenless+`"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	claimed := decode[api.Order](t, rec)
	assert.Equal(t, "Assigned", claimed.Status)
	require.NotNil(t, claimed.CourierID)
	assert.Equal(t, courierID, *claimed.CourierID)
}

func TestReportLocation_Geofence(t *testing.T) {
	a := newTestAPI(t, api.RouterConfig{})
	a.createHavanaOrder(t)
	base := "/api/v1/orders/" + orderID

	rec := a.do(t, http.MethodPost, base+"/location", `{"lat":23.1136,"lon":-82.3666}`)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[api.LocationReport](t, rec)
	assert.Equal(t, "Available", report.Status)
	assert.False(t, report.Transitioned)

	require.Equal(t, http.StatusOK,
		a.do(t, http.MethodPost, base+"/claim", `{"courierId":"`+courierID+`"}`).Code)

	report = decode[api.LocationReport](t,
		a.do(t, http.MethodPost, base+"/location", `{"lat":23.1136,"lon":-82.3666}`))
	assert.Equal(t, "InTransit", report.Status)
	assert.True(t, report.Transitioned)
	assert.InDelta(t, 0, report.DistanceToPickupMeters, 1e-6)
	assert.InDelta(t, 792.05, report.DistanceToDropoffMeters, 0.01)

	report = decode[api.LocationReport](t,
		a.do(t, http.MethodPost, base+"/location", `{"lat":23.1200,"lon":-82.3700}`))
	assert.Equal(t, "Delivered", report.Status)
	assert.True(t, report.Transitioned)

	a.server.WaitArchivals()
	assert.Equal(t, []string{orderID}, a.archiver.ids())
}

func TestReportLocation_Errors(t *testing.T) {
	a := newTestAPI(t, api.RouterConfig{})
	path := "/api/v1/orders/" + orderID + "/location"

	requireError(t, a.do(t, http.MethodPost, path, `{"lat":0,"lon":0}`), http.StatusNotFound)

	a.createHavanaOrder(t)
	require.Equal(t, http.StatusOK,
		a.do(t, http.MethodPost, "/api/v1/orders/"+orderID+"/claim", `{"courierId":"`+courierID+`"}`).Code)

	tests := map[string]struct {
		body    string
		message string
	}{
		"latitude out of range": {`{"lat":-91,"lon":-82.3666}`, "lat failed on 'gte'"},
		"missing latitude":      {`{"lon":-82.3666}`, "lat failed on 'required'"},
		"missing longitude":     {`{"lat":23.1136}`, "lon failed on 'required'"},
		"malformed json":        {`{"lat":`, "Invalid request body"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			body := requireError(t, a.do(t, http.MethodPost, path, tc.body), http.StatusBadRequest)
			assert.Contains(t, body.Message, tc.message)
			assert.Equal(t, "Assigned", a.status(t, orderID))
		})
	}
}

func TestUnknownRouteUsesErrorBody(t *testing.T) {
	a := newTestAPI(t, api.RouterConfig{})

	requireError(t, a.do(t, http.MethodGet, "/api/v1/couriers", ""), http.StatusNotFound)
	requireError(t, a.do(t, http.MethodDelete, "/api/v1/orders/"+orderID, ""), http.StatusMethodNotAllowed)
}

func TestReportLocation_RateLimited(t *testing.T) {
	limiter := &countingLimiter{count: map[string]int64{}}
	a := newTestAPI(t, api.RouterConfig{LocationLimiter: limiter, LocationLimitPerMinute: 2})
	a.createHavanaOrder(t)
	path := "/api/v1/orders/" + orderID + "/location"

	assert.Equal(t, http.StatusOK, a.do(t, http.MethodPost, path, `{"lat":0,"lon":0}`).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodPost, path, `{"lat":0,"lon":0}`).Code)

	rec := a.do(t, http.MethodPost, path, `{"lat":0,"lon":0}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, int64(3), limiter.count["ratelimit:location:"+orderID])
}

func TestListOrders(t *testing.T) {
	a := newTestAPI(t, api.RouterConfig{})
	a.createHavanaOrder(t)

	for _, status := range []string{"Available", "available", "disponible"} {
		rec := a.do(t, http.MethodGet, "/api/v1/orders?status="+status, "")
		require.Equal(t, http.StatusOK, rec.Code)
		list := decode[[]api.Order](t, rec)
		require.Len(t, list, 1, status)
		assert.Equal(t, orderID, list[0].ID)
	}

	rec := a.do(t, http.MethodGet, "/api/v1/orders?status=en%20camino", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]api.Order](t, rec))

	requireError(t, a.do(t, http.MethodGet, "/api/v1/orders", ""), http.StatusBadRequest)
	requireError(t, a.do(t, http.MethodGet, "/api/v1/orders?status=lost", ""), http.StatusBadRequest)
}

func TestMarkDelivered_ArchiverFailureKeepsResponse(t *testing.T) {
	a := newTestAPI(t, api.RouterConfig{})
	a.archiver.err = errors.New("broker unavailable")
	a.createHavanaOrder(t)
	base := "/api/v1/orders/" + orderID

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, base+"/claim", `{"courierId":"`+courierID+`"}`).Code)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, base+"/in-transit", "").Code)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, base+"/deliver", "").Code)
	a.server.WaitArchivals()

	got := decode[api.Order](t, a.do(t, http.MethodGet, base, ""))
	assert.Equal(t, "Delivered", got.Status)
	assert.Nil(t, got.ArchivedAt)
}

func TestOpenAPIDocument(t *testing.T) {
	doc, err := api.LoadOpenAPI(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/orders/{orderId}/location"))

	a := newTestAPI(t, api.RouterConfig{})
	rec := a.do(t, http.MethodGet, "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openapi: 3.0.3")
}

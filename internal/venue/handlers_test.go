package venue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianhft/venue-api/internal/types"
	"github.com/meridianhft/venue-api/pkg/response"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client := newTestClient(t)
	handlers := NewGinHandlers(client)

	router := gin.New()
	router.POST("/orders", handlers.PlaceOrderHandler())
	router.DELETE("/orders", handlers.CancelAllOrdersHandler())
	router.GET("/orders", handlers.GetOpenOrdersHandler())
	router.GET("/orders/history", handlers.GetOrderHistoryHandler())
	router.GET("/orders/:order_id", handlers.GetOrderHandler())
	router.DELETE("/orders/:order_id", handlers.CancelOrderHandler())
	router.GET("/balances", handlers.GetBalancesHandler())
	router.GET("/positions", handlers.GetPositionsHandler())
	router.GET("/health", handlers.HealthHandler())
	return router, client
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var envelope response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w, envelope
}

func TestPlaceOrderEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w, envelope := doJSON(t, router, http.MethodPost, "/orders", gin.H{
		"symbol":     "BTC-PERP",
		"side":       "BUY",
		"order_type": "LIMIT",
		"amount":     "1",
		"price":      "50000",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, envelope.Success)

	order := envelope.Data.(map[string]interface{})
	assert.NotEmpty(t, order["order_id"])
	assert.Equal(t, "OPEN", order["status"])
}

func TestPlaceOrderEndpointWithAuthenticatedCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)

	client := newTestClient(t)
	handlers := NewGinHandlers(client)

	router := gin.New()
	// Stand-in for the JWT middleware: seed the claims it would set
	router.Use(func(c *gin.Context) {
		c.Set("claims", jwt.MapClaims{"client_id": "key-1"})
		c.Next()
	})
	router.POST("/orders", handlers.PlaceOrderHandler())
	router.DELETE("/orders", handlers.CancelAllOrdersHandler())

	w, envelope := doJSON(t, router, http.MethodPost, "/orders", gin.H{
		"symbol":     "BTC-PERP",
		"side":       "BUY",
		"order_type": "LIMIT",
		"amount":     "1",
		"price":      "50000",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, envelope.Success)

	w, envelope = doJSON(t, router, http.MethodDelete, "/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, envelope.Data.([]interface{}), 1)
}

func TestPlaceOrderEndpointRejectsMarket(t *testing.T) {
	router, _ := newTestRouter(t)

	w, envelope := doJSON(t, router, http.MethodPost, "/orders", gin.H{
		"symbol":     "BTC-PERP",
		"side":       "BUY",
		"order_type": "MARKET",
		"amount":     "1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, response.ErrCodeBadRequest, envelope.Error.Code)
}

func TestPlaceOrderEndpointRequiresSymbol(t *testing.T) {
	router, _ := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodPost, "/orders", gin.H{
		"side":       "BUY",
		"order_type": "LIMIT",
		"amount":     "1",
		"price":      "100",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelOrderEndpoint(t *testing.T) {
	router, client := newTestRouter(t)

	order, err := client.PlaceOrder("BTC-PERP", types.SideBuy, types.OrderTypeLimit,
		decimal.NewFromInt(1), decimal.NewFromInt(100), "")
	require.NoError(t, err)

	w, envelope := doJSON(t, router, http.MethodDelete, "/orders/"+order.OrderID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, envelope.Success)
	assert.Equal(t, "CANCELED", envelope.Data.(map[string]interface{})["status"])
}

func TestCancelUnknownOrderEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w, envelope := doJSON(t, router, http.MethodDelete, "/orders/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, response.ErrCodeNotFound, envelope.Error.Code)
}

func TestCancelAllOrdersEndpoint(t *testing.T) {
	router, client := newTestRouter(t)

	for i := 0; i < 3; i++ {
		_, err := client.PlaceOrder("BTC-PERP", types.SideBuy, types.OrderTypeLimit,
			decimal.NewFromInt(1), decimal.NewFromInt(100), "")
		require.NoError(t, err)
	}

	w, envelope := doJSON(t, router, http.MethodDelete, "/orders?symbol=BTC-PERP", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, envelope.Data.([]interface{}), 3)
	assert.Empty(t, client.GetOpenOrders(""))
}

func TestGetOrderHistoryEndpoint(t *testing.T) {
	router, client := newTestRouter(t)

	for i := 0; i < 3; i++ {
		_, err := client.PlaceOrder("BTC-PERP", types.SideBuy, types.OrderTypeLimit,
			decimal.NewFromInt(1), decimal.NewFromInt(100+int64(i)), "")
		require.NoError(t, err)
	}

	w, envelope := doJSON(t, router, http.MethodGet, "/orders/history?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, envelope.Data.([]interface{}), 2)

	w, _ = doJSON(t, router, http.MethodGet, "/orders/history?since=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, router, http.MethodGet, "/orders/history?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBalancesEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w, envelope := doJSON(t, router, http.MethodGet, "/balances", nil)
	require.Equal(t, http.StatusOK, w.Code)

	balances := envelope.Data.([]interface{})
	require.Len(t, balances, 1)
	balance := balances[0].(map[string]interface{})
	assert.Equal(t, "USDC", balance["currency"])
	assert.Equal(t, "100000", fmt.Sprint(balance["free"]))
}

func TestGetPositionsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w, envelope := doJSON(t, router, http.MethodGet, "/positions?symbols=BTC-PERP,ETH-PERP", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, envelope.Data.([]interface{}), 2)
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w, envelope := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := envelope.Data.(map[string]interface{})
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "grvt", health["venue"])
}

package venue

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/meridianhft/venue-api/internal/auth"
	"github.com/meridianhft/venue-api/internal/types"
	"github.com/meridianhft/venue-api/pkg/response"
)

// GinHandlers contains HTTP handlers for the venue client endpoints
type GinHandlers struct {
	client *Client
}

// NewGinHandlers creates a new set of HTTP handlers over the client
func NewGinHandlers(client *Client) *GinHandlers {
	return &GinHandlers{
		client: client,
	}
}

// callerID resolves the authenticated caller from the JWT claims set by
// the middleware; empty on unauthenticated routes.
func callerID(c *gin.Context) string {
	claims, exists := c.Get("claims")
	if !exists {
		return ""
	}
	return auth.GetClientID(claims)
}

type placeOrderRequest struct {
	Symbol        string          `json:"symbol"`
	Side          types.Side      `json:"side"`
	OrderType     types.OrderType `json:"order_type"`
	Amount        decimal.Decimal `json:"amount"`
	Price         decimal.Decimal `json:"price"`
	ClientOrderID string          `json:"client_order_id"`
}

// PlaceOrderHandler handles POST requests to place new orders
// Request body carries the order details; only limit-family order types
// are accepted by this backend
func (h *GinHandlers) PlaceOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req placeOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if req.Symbol == "" {
			response.BadRequest(c, "symbol is required")
			return
		}

		order, err := h.client.PlaceOrder(req.Symbol, req.Side, req.OrderType, req.Amount, req.Price, req.ClientOrderID)
		if err != nil {
			if errors.Is(err, types.ErrUnsupportedOrderType) {
				response.BadRequest(c, err.Error())
				return
			}
			response.InternalError(c, err.Error())
			return
		}

		log.Info().
			Str("client_id", callerID(c)).
			Str("order_id", order.OrderID).
			Str("symbol", order.Symbol).
			Msg("order placed via API")

		response.Success(c, order)
	}
}

// CancelOrderHandler handles DELETE requests to cancel a single order
// URL parameter: order_id; optional query parameter: symbol
func (h *GinHandlers) CancelOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("order_id")
		if orderID == "" {
			response.BadRequest(c, "Order ID is required")
			return
		}

		order, err := h.client.CancelOrder(orderID, c.Query("symbol"))
		if err != nil {
			if errors.Is(err, types.ErrOrderNotFound) {
				response.NotFound(c, "Order not found")
				return
			}
			response.InternalError(c, err.Error())
			return
		}

		response.Success(c, order)
	}
}

// CancelAllOrdersHandler handles DELETE requests to cancel all open
// orders, optionally filtered by the symbol query parameter
func (h *GinHandlers) CancelAllOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		canceled := h.client.CancelAllOrders(c.Query("symbol"))

		log.Info().
			Str("client_id", callerID(c)).
			Str("symbol", c.Query("symbol")).
			Int("canceled", len(canceled)).
			Msg("all orders canceled via API")

		response.Success(c, canceled)
	}
}

// GetOrderHandler handles GET requests for a single order by id
func (h *GinHandlers) GetOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("order_id")
		if orderID == "" {
			response.BadRequest(c, "Order ID is required")
			return
		}

		order, err := h.client.GetOrder(orderID, c.Query("symbol"))
		if err != nil {
			response.NotFound(c, "Order not found")
			return
		}

		response.Success(c, order)
	}
}

// GetOpenOrdersHandler handles GET requests for all open orders
func (h *GinHandlers) GetOpenOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.client.GetOpenOrders(c.Query("symbol")))
	}
}

// GetOrderHistoryHandler handles GET requests for the full order history
// Optional query parameters: symbol, since (RFC3339), limit
func (h *GinHandlers) GetOrderHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var since time.Time
		if raw := c.Query("since"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				response.BadRequest(c, "since must be RFC3339")
				return
			}
			since = parsed
		}

		limit := 0
		if raw := c.Query("limit"); raw != "" {
			parsed, err := decimal.NewFromString(raw)
			if err != nil || !parsed.IsInteger() || parsed.IsNegative() {
				response.BadRequest(c, "limit must be a non-negative integer")
				return
			}
			limit = int(parsed.IntPart())
		}

		response.Success(c, h.client.GetOrderHistory(c.Query("symbol"), since, limit))
	}
}

// GetBalancesHandler handles GET requests for account balances
func (h *GinHandlers) GetBalancesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.client.GetBalances())
	}
}

// GetPositionsHandler handles GET requests for positions
// Optional query parameter: symbols (comma-separated)
func (h *GinHandlers) GetPositionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var symbols []string
		if raw := c.Query("symbols"); raw != "" {
			for _, s := range strings.Split(raw, ",") {
				if s = strings.TrimSpace(s); s != "" {
					symbols = append(symbols, s)
				}
			}
		}

		response.Success(c, h.client.GetPositions(symbols))
	}
}

// HealthHandler handles GET requests for the connectivity health check
func (h *GinHandlers) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.client.HealthCheck())
	}
}

package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"perle-storefront/internal/domain"
	cartsvc "perle-storefront/internal/service/cart"

	"github.com/gin-gonic/gin"
)

// maxCartBodyBytes caps cart mutation bodies; the tree is persisted as sent.
const maxCartBodyBytes = 64 << 10

type addItemRequest struct {
	domain.CartLine
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *handlers) getCart(c *gin.Context) {
	view, err := h.cart.Get(c.Request.Context(), visitorID(c))
	h.respondCart(c, view, err)
}

func (h *handlers) addItem(c *gin.Context) {
	var req addItemRequest
	if !bindCartBody(c, &req) {
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidItem.Error()})
		return
	}
	view, err := h.cart.AddItem(c.Request.Context(), visitorID(c), req.CartLine)
	h.respondCart(c, view, err)
}

func (h *handlers) addChildItem(c *gin.Context) {
	var req cartsvc.AddChildInput
	if !bindCartBody(c, &req) {
		return
	}
	if strings.TrimSpace(req.Item.ProductID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidItem.Error()})
		return
	}
	view, err := h.cart.AddChildItem(c.Request.Context(), visitorID(c), c.Param("lineId"), req)
	h.respondCart(c, view, err)
}

func (h *handlers) updateQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if !bindCartBody(c, &req) {
		return
	}
	if req.Quantity == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity required"})
		return
	}
	view, err := h.cart.UpdateQuantity(c.Request.Context(), visitorID(c), c.Param("lineId"), *req.Quantity)
	h.respondCart(c, view, err)
}

func (h *handlers) removeItem(c *gin.Context) {
	view, err := h.cart.RemoveItem(c.Request.Context(), visitorID(c), c.Param("lineId"))
	h.respondCart(c, view, err)
}

func (h *handlers) clearCart(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context(), visitorID(c)); err != nil {
		h.respondCart(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, cartsvc.View{Lines: []domain.CartLine{}})
}

func (h *handlers) respondCart(c *gin.Context, view *cartsvc.View, err error) {
	switch {
	case err == nil:
		if view.Lines == nil {
			view.Lines = []domain.CartLine{}
		}
		c.JSON(http.StatusOK, view)
	case errors.Is(err, domain.ErrParentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Printf("cart %s: %v", visitorID(c), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// bindCartBody decodes at most maxCartBodyBytes of JSON into dst, writing the error
// response itself when it fails.
func bindCartBody(c *gin.Context, dst interface{}) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxCartBodyBytes)
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body too large"})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return false
	}
	return true
}

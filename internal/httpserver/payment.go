package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"perle-storefront/internal/backend"
	"perle-storefront/internal/domain"
	paymentsvc "perle-storefront/internal/service/payment"

	"github.com/gin-gonic/gin"
)

const (
	resultPath    = "/betaling/resultat"
	successPath   = "/betaling/suksess"
	cancelledPath = "/betaling/avbrutt"
)

var cancelledCopy = map[paymentsvc.Reason]string{
	paymentsvc.ReasonCancelled: "Betalingen ble avbrutt. Handlekurven din er uendret.",
	paymentsvc.ReasonFailed:    "Betalingen feilet. Handlekurven din er uendret, prøv gjerne igjen.",
	paymentsvc.ReasonTimeout:   "Vi fikk ikke bekreftet betalingen i tide. Handlekurven din er uendret.",
}

func (h *handlers) startCheckout(c *gin.Context) {
	sess, err := h.payment.StartCheckout(c.Request.Context(), visitorID(c))
	if err != nil {
		var apiErr *backend.APIError
		switch {
		case errors.Is(err, domain.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Handlekurven er tom"})
		case errors.As(err, &apiErr) && apiErr.Detail != "":
			c.JSON(http.StatusBadGateway, gin.H{"detail": apiErr.Detail})
		default:
			h.logger.Printf("start checkout for %s: %v", visitorID(c), err)
			c.JSON(http.StatusBadGateway, gin.H{"detail": "Kunne ikke starte betalingen. Prøv igjen."})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"reference":   sess.Reference,
		"orderNumber": sess.OrderNumber,
		"checkoutUrl": sess.CheckoutURL,
	})
}

func (h *handlers) paymentResult(c *gin.Context) {
	reference := c.Query("reference")
	res, err := h.payment.AwaitResult(c.Request.Context(), reference)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidReference):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Ugyldig eller manglende betalingsreferanse"})
		case errors.Is(err, context.Canceled):
			// Client went away; nobody is left to answer.
			c.Abort()
		default:
			h.logger.Printf("await result %s: %v", reference, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	q := url.Values{"reference": {res.Reference}}
	target := successPath
	if res.State != paymentsvc.StateSuccess {
		target = cancelledPath
		q.Set("reason", string(res.Reason))
	}
	c.Redirect(http.StatusSeeOther, target+"?"+q.Encode())
}

func (h *handlers) paymentSuccess(c *gin.Context) {
	reference := c.Query("reference")
	summary, err := h.payment.Confirm(c.Request.Context(), reference)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidReference):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Ugyldig eller manglende betalingsreferanse"})
		case errors.Is(err, domain.ErrNotPaid):
			c.Redirect(http.StatusSeeOther, resultPath+"?"+url.Values{"reference": {reference}}.Encode())
		default:
			h.logger.Printf("confirm %s: %v", reference, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Kunne ikke hente ordrestatus. Last siden på nytt."})
		}
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *handlers) paymentCancelled(c *gin.Context) {
	reference := c.Query("reference")
	if err := paymentsvc.ValidateReference(reference); err != nil {
		reference = ""
	}
	reason := paymentsvc.ParseReason(c.Query("reason"))
	c.JSON(http.StatusOK, gin.H{
		"reference": reference,
		"reason":    reason,
		"message":   cancelledCopy[reason],
		"retryUrl":  "/handlekurv",
	})
}

package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"go.uber.org/zap"
)

// CheckoutHandler creates Stripe Checkout sessions for one-time and
// recurring donations. The amount arrives in cents and is validated here;
// no donation row is written until the webhook confirms payment.
type CheckoutHandler struct {
	logger       *zap.Logger
	clientURL    string
	campaignName string
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(logger *zap.Logger, clientURL, campaignName string) *CheckoutHandler {
	return &CheckoutHandler{
		logger:       logger,
		clientURL:    clientURL,
		campaignName: campaignName,
	}
}

// CreateCheckoutRequest is the donation checkout request body. Amount is in
// cents.
type CreateCheckoutRequest struct {
	Amount       int64  `json:"amount" validate:"required,gt=0"`
	Currency     string `json:"currency" validate:"omitempty,len=3"`
	DonationType string `json:"donationType" validate:"omitempty,oneof=one-time recurring"`
}

// CreateSession creates a Stripe Checkout session for the requested amount
func (h *CheckoutHandler) CreateSession(c echo.Context) error {
	var req CreateCheckoutRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
		})
	}

	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid amount",
		})
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
		})
	}

	if req.Currency == "" {
		req.Currency = "usd"
	}
	if req.DonationType == "" {
		req.DonationType = "one-time"
	}

	h.logger.Info("Creating checkout session...",
		zap.Int64("amount", req.Amount),
		zap.String("currency", req.Currency),
		zap.String("donation_type", req.DonationType),
	)

	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency:   stripe.String(req.Currency),
		UnitAmount: stripe.Int64(req.Amount),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(h.campaignName),
		},
	}

	mode := stripe.CheckoutSessionModePayment
	if req.DonationType == "recurring" {
		mode = stripe.CheckoutSessionModeSubscription
		priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String("month"),
		}
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: priceData,
				Quantity:  stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(mode)),
		SuccessURL: stripe.String(h.clientURL + "/donate?success=true"),
		CancelURL:  stripe.String(h.clientURL + "/donate?canceled=true"),
	}
	params.AddMetadata("donation_type", req.DonationType)

	s, err := checkoutsession.New(params)
	if err != nil {
		h.logger.Error("Error creating checkout session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create checkout session",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"sessionId": s.ID,
	})
}

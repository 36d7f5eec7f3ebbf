package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/reliefworks/donation-service/internal/domain/model"
	"github.com/reliefworks/donation-service/internal/domain/repository"
	"github.com/reliefworks/donation-service/internal/usecase"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"
)

// StripeWebhookHandler ingests Stripe event deliveries. Every delivery is
// audited before interpretation; signature verification is mandatory and an
// unverified delivery is audited and rejected without touching donations.
type StripeWebhookHandler struct {
	ingestService *usecase.IngestService
	webhookRepo   repository.WebhookRepository
	webhookSecret string
	logger        *zap.Logger
}

// NewStripeWebhookHandler creates a new Stripe webhook handler
func NewStripeWebhookHandler(
	ingestService *usecase.IngestService,
	webhookRepo repository.WebhookRepository,
	webhookSecret string,
	logger *zap.Logger,
) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		ingestService: ingestService,
		webhookRepo:   webhookRepo,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// HandleWebhook verifies, audits and processes one Stripe event delivery.
// Redeliveries are safe: the audit trail collapses on the provider event id
// and every donation write is a keyed upsert.
func (h *StripeWebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	sig := c.Request().Header.Get("Stripe-Signature")

	event, err := webhook.ConstructEventWithOptions(
		body,
		sig,
		h.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)

	if err != nil {
		h.logger.Error("Webhook signature verification failed",
			zap.Error(err),
			zap.String("signature", sig),
		)
		h.auditUnverified(c, body, sig)
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Webhook signature verification failed",
		})
	}

	h.logger.Info("Webhook Event Received",
		zap.String("type", string(event.Type)),
		zap.String("id", event.ID),
		zap.Time("created", time.Unix(event.Created, 0)),
	)

	audit, err := h.webhookRepo.LogEvent(c.Request().Context(), &model.WebhookEvent{
		Source:    string(model.SourceStripe),
		EventID:   &event.ID,
		EventType: string(event.Type),
		Payload:   payloadJSONB(body),
		Signature: sig,
		Verified:  true,
	})
	if err != nil {
		h.logger.Error("Failed to audit webhook event", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Failed to record webhook event",
		})
	}

	processed, err := h.processEvent(c, event)
	if err != nil {
		h.logger.Error("Failed to process webhook event",
			zap.String("type", string(event.Type)),
			zap.String("id", event.ID),
			zap.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Failed to process webhook event",
		})
	}

	if processed {
		if err := h.webhookRepo.MarkProcessed(c.Request().Context(), audit.ID); err != nil {
			h.logger.Error("Failed to mark webhook as processed",
				zap.Int64("audit_id", audit.ID),
				zap.Error(err),
			)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"processed": processed,
	})
}

func (h *StripeWebhookHandler) processEvent(c echo.Context, event stripe.Event) (bool, error) {
	ctx := c.Request().Context()

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return false, err
		}

		_, err := h.ingestService.RecordDonation(ctx, h.paymentIntentEvent(&pi, model.DonationStatusSucceeded))
		return err == nil, err

	case stripe.EventTypeChargeSucceeded:
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return false, err
		}

		_, err := h.ingestService.RecordDonation(ctx, h.chargeEvent(&ch, model.DonationStatusSucceeded))
		return err == nil, err

	case stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return false, err
		}

		metadata := model.JSONB{}
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			metadata["failure_message"] = pi.LastPaymentError.Msg
		}

		err := h.ingestService.TransitionStatus(ctx, pi.ID, model.SourceStripe, model.DonationStatusFailed, metadata)
		return err == nil, err

	case stripe.EventTypeChargeFailed:
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return false, err
		}

		metadata := model.JSONB{}
		if ch.FailureMessage != "" {
			metadata["failure_message"] = ch.FailureMessage
		}

		err := h.ingestService.TransitionStatus(ctx, chargeExternalID(&ch), model.SourceStripe, model.DonationStatusFailed, metadata)
		return err == nil, err

	case stripe.EventTypeChargeDisputeCreated:
		var dispute stripe.Dispute
		if err := json.Unmarshal(event.Data.Raw, &dispute); err != nil {
			return false, err
		}

		extID := ""
		if dispute.PaymentIntent != nil {
			extID = dispute.PaymentIntent.ID
		} else if dispute.Charge != nil {
			extID = dispute.Charge.ID
		}
		if extID == "" {
			h.logger.Warn("Dispute event carries no charge reference", zap.String("dispute_id", dispute.ID))
			return false, nil
		}

		metadata := model.JSONB{"dispute_reason": string(dispute.Reason)}
		err := h.ingestService.TransitionStatus(ctx, extID, model.SourceStripe, model.DonationStatusDisputed, metadata)
		return err == nil, err

	case stripe.EventTypeCustomerSubscriptionCreated, stripe.EventTypeCustomerSubscriptionUpdated:
		var rawData map[string]interface{}
		if err := json.Unmarshal(event.Data.Raw, &rawData); err != nil {
			return false, err
		}

		status, _ := rawData["status"].(string)
		email := subscriptionEmail(rawData)

		h.logger.Info("Subscription lifecycle event",
			zap.String("status", status),
			zap.Bool("has_email", email != ""),
		)

		err := h.ingestService.SetMonthlyDonor(ctx, email, status == "active")
		return err == nil, err

	case stripe.EventTypeCustomerSubscriptionDeleted:
		var rawData map[string]interface{}
		if err := json.Unmarshal(event.Data.Raw, &rawData); err != nil {
			return false, err
		}

		err := h.ingestService.SetMonthlyDonor(ctx, subscriptionEmail(rawData), false)
		return err == nil, err

	case stripe.EventTypeInvoicePaymentFailed:
		// Recurring charge failure; the follow-up payment_intent.payment_failed
		// event carries the transition.
		h.logger.Warn("Invoice payment failed", zap.String("event_id", event.ID))
		return true, nil

	default:
		h.logger.Warn("Unhandled event type",
			zap.String("type", string(event.Type)),
		)
		return false, nil
	}
}

func (h *StripeWebhookHandler) paymentIntentEvent(pi *stripe.PaymentIntent, status model.DonationStatus) usecase.DonationEvent {
	email := pi.ReceiptEmail
	if email == "" {
		email = pi.Metadata["email"]
	}

	return usecase.DonationEvent{
		ExternalID:   pi.ID,
		Source:       model.SourceStripe,
		Email:        email,
		FirstName:    pi.Metadata["first_name"],
		LastName:     pi.Metadata["last_name"],
		AmountCents:  pi.Amount,
		Currency:     strings.ToUpper(string(pi.Currency)),
		Frequency:    stripeFrequency(pi.Metadata),
		Status:       status,
		Method:       "stripe",
		Campaign:     optionalString(pi.Metadata["campaign"]),
		ReferralCode: pi.Metadata["referral_code"],
		DonatedAt:    time.Unix(pi.Created, 0).UTC(),
		Metadata:     model.JSONB{"stripe_event": "payment_intent"},
	}
}

// chargeEvent mirrors paymentIntentEvent; the external id prefers the parent
// payment intent so both event families converge on one donation row.
func (h *StripeWebhookHandler) chargeEvent(ch *stripe.Charge, status model.DonationStatus) usecase.DonationEvent {
	email := ch.ReceiptEmail
	if email == "" {
		email = ch.Metadata["email"]
	}

	return usecase.DonationEvent{
		ExternalID:   chargeExternalID(ch),
		Source:       model.SourceStripe,
		Email:        email,
		FirstName:    ch.Metadata["first_name"],
		LastName:     ch.Metadata["last_name"],
		AmountCents:  ch.Amount,
		Currency:     strings.ToUpper(string(ch.Currency)),
		Frequency:    stripeFrequency(ch.Metadata),
		Status:       status,
		Method:       "stripe",
		Campaign:     optionalString(ch.Metadata["campaign"]),
		ReferralCode: ch.Metadata["referral_code"],
		DonatedAt:    time.Unix(ch.Created, 0).UTC(),
		Metadata:     model.JSONB{"stripe_event": "charge"},
	}
}

// auditUnverified records a delivery that failed signature verification.
// Audit failures here are logged only; the caller already rejects with 400.
func (h *StripeWebhookHandler) auditUnverified(c echo.Context, body []byte, sig string) {
	_, err := h.webhookRepo.LogEvent(c.Request().Context(), &model.WebhookEvent{
		Source:    string(model.SourceStripe),
		EventType: "unverified",
		Payload:   payloadJSONB(body),
		Signature: sig,
		Verified:  false,
	})
	if err != nil {
		h.logger.Error("Failed to audit unverified webhook", zap.Error(err))
	}
}

func chargeExternalID(ch *stripe.Charge) string {
	if ch.PaymentIntent != nil && ch.PaymentIntent.ID != "" {
		return ch.PaymentIntent.ID
	}
	return ch.ID
}

func stripeFrequency(metadata map[string]string) model.DonationFrequency {
	if metadata["donation_type"] == "recurring" {
		return model.FrequencyMonthly
	}
	return model.FrequencyOneTime
}

func subscriptionEmail(rawData map[string]interface{}) string {
	if metadata, ok := rawData["metadata"].(map[string]interface{}); ok {
		if email, ok := metadata["email"].(string); ok {
			return email
		}
	}
	return ""
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// payloadJSONB preserves the raw delivery body for the audit trail even when
// it is not valid JSON.
func payloadJSONB(body []byte) model.JSONB {
	var payload model.JSONB
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return model.JSONB{"raw": string(body)}
	}
	return payload
}

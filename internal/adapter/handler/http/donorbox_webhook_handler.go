package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/reliefworks/donation-service/internal/domain/model"
	"github.com/reliefworks/donation-service/internal/domain/repository"
	"github.com/reliefworks/donation-service/internal/usecase"
	"go.uber.org/zap"
)

// DonorboxWebhookHandler ingests Donorbox donation webhooks. Donorbox signs
// the raw body with HMAC-SHA256 and sends amounts in dollars; both are
// normalized here before anything reaches the ingest service.
type DonorboxWebhookHandler struct {
	ingestService *usecase.IngestService
	webhookRepo   repository.WebhookRepository
	webhookSecret string
	logger        *zap.Logger
}

// NewDonorboxWebhookHandler creates a new Donorbox webhook handler
func NewDonorboxWebhookHandler(
	ingestService *usecase.IngestService,
	webhookRepo repository.WebhookRepository,
	webhookSecret string,
	logger *zap.Logger,
) *DonorboxWebhookHandler {
	return &DonorboxWebhookHandler{
		ingestService: ingestService,
		webhookRepo:   webhookRepo,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// DonorboxDonor is the donor block of a Donorbox webhook payload.
type DonorboxDonor struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
}

// DonorboxDonation is the donation block of a Donorbox webhook payload.
// Amount is in dollars, not cents; json.Number tolerates both the numeric
// form Donorbox documents and the quoted form some deliveries carry.
type DonorboxDonation struct {
	ID            json.Number   `json:"id"`
	Donor         DonorboxDonor `json:"donor"`
	Amount        json.Number   `json:"amount"`
	Currency      string        `json:"currency"`
	Recurring     bool          `json:"recurring"`
	Frequency     string        `json:"frequency"`
	Status        string        `json:"status"`
	PaymentMethod string        `json:"payment_method"`
	DonationDate  string        `json:"donation_date"`
	Campaign      string        `json:"campaign_name"`
	ReferralCode  string        `json:"referral_code"`
}

// DonorboxWebhookPayload is the top-level Donorbox webhook body.
type DonorboxWebhookPayload struct {
	Donation DonorboxDonation `json:"donation"`
}

// HandleWebhook verifies, audits and records one Donorbox donation delivery.
func (h *DonorboxWebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	sig := c.Request().Header.Get("X-Donorbox-Signature")

	if !h.verifySignature(body, sig) {
		h.logger.Error("Webhook signature verification failed",
			zap.String("signature", sig),
		)
		h.auditUnverified(c, body, sig)
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Webhook signature verification failed",
		})
	}

	// Audit before interpretation: even a malformed body leaves a row once
	// the signature checks out.
	audit, err := h.webhookRepo.LogEvent(c.Request().Context(), &model.WebhookEvent{
		Source:    string(model.SourceDonorbox),
		EventType: "donation.created",
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

	var payload DonorboxWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Error("Error parsing Donorbox payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error parsing webhook"})
	}

	donation := payload.Donation
	extID := donation.ID.String()

	h.logger.Info("Webhook Event Received",
		zap.String("source", string(model.SourceDonorbox)),
		zap.String("donation_id", extID),
		zap.String("status", donation.Status),
	)

	stored, err := h.ingestService.RecordDonation(c.Request().Context(), h.donationEvent(extID, donation))
	if err != nil {
		h.logger.Error("Failed to process webhook event",
			zap.String("donation_id", extID),
			zap.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Failed to process webhook event",
		})
	}

	if err := h.webhookRepo.MarkProcessed(c.Request().Context(), audit.ID); err != nil {
		h.logger.Error("Failed to mark webhook as processed",
			zap.Int64("audit_id", audit.ID),
			zap.Error(err),
		)
	}

	response := echo.Map{"success": true}
	if stored != nil {
		response["donor_id"] = stored.DonorID
		response["donation_id"] = stored.ID
	}
	return c.JSON(http.StatusOK, response)
}

func (h *DonorboxWebhookHandler) donationEvent(extID string, donation DonorboxDonation) usecase.DonationEvent {
	currency := strings.ToUpper(donation.Currency)
	if currency == "" {
		currency = "USD"
	}

	donatedAt, err := time.Parse(time.RFC3339, donation.DonationDate)
	if err != nil {
		donatedAt = time.Now().UTC()
	}

	amount, err := donation.Amount.Float64()
	if err != nil {
		amount = 0
	}

	return usecase.DonationEvent{
		ExternalID: extID,
		Source:     model.SourceDonorbox,
		Email:      donation.Donor.Email,
		FirstName:  donation.Donor.FirstName,
		LastName:   donation.Donor.LastName,
		Phone:      optionalString(donation.Donor.Phone),
		Country:    optionalString(donation.Donor.Country),
		// Donorbox reports dollars; the store keeps integer cents.
		AmountCents:   int64(math.Round(amount * 100)),
		Currency:      currency,
		Frequency:     donorboxFrequency(donation),
		Status:        donorboxStatus(donation.Status),
		Method:        donation.PaymentMethod,
		Campaign:      optionalString(donation.Campaign),
		ReferralCode:  donation.ReferralCode,
		DonatedAt:     donatedAt,
		Metadata:      model.JSONB{"donorbox_status": donation.Status},
		ConsentSource: "donorbox_donation",
	}
}

func (h *DonorboxWebhookHandler) auditUnverified(c echo.Context, body []byte, sig string) {
	_, err := h.webhookRepo.LogEvent(c.Request().Context(), &model.WebhookEvent{
		Source:    string(model.SourceDonorbox),
		EventType: "unverified",
		Payload:   payloadJSONB(body),
		Signature: sig,
		Verified:  false,
	})
	if err != nil {
		h.logger.Error("Failed to audit unverified webhook", zap.Error(err))
	}
}

func (h *DonorboxWebhookHandler) verifySignature(body []byte, sig string) bool {
	if sig == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(sig)))
}

func donorboxStatus(status string) model.DonationStatus {
	switch strings.ToLower(status) {
	case "paid", "succeeded":
		return model.DonationStatusSucceeded
	case "failed":
		return model.DonationStatusFailed
	default:
		return model.DonationStatusPending
	}
}

func donorboxFrequency(donation DonorboxDonation) model.DonationFrequency {
	if !donation.Recurring {
		return model.FrequencyOneTime
	}
	if strings.EqualFold(donation.Frequency, "monthly") {
		return model.FrequencyMonthly
	}
	return model.FrequencyOther
}

package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/reliefworks/donation-service/internal/domain/model"
	"github.com/reliefworks/donation-service/internal/usecase"
)

const donorboxTestSecret = "donorbox_test_secret"

func donorboxSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func newDonorboxWebhookTest(webhookRepo *MockWebhookRepository, donorRepo *MockDonorRepository, donationRepo *MockDonationRepository, referralRepo *MockReferralRepository) *DonorboxWebhookHandler {
	logger := zap.NewNop()
	ingest := usecase.NewIngestService(donorRepo, donationRepo, referralRepo, logger)
	return NewDonorboxWebhookHandler(ingest, webhookRepo, donorboxTestSecret, logger)
}

func performDonorboxWebhook(handler *DonorboxWebhookHandler, payload []byte, signature string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/donorbox", strings.NewReader(string(payload)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Donorbox-Signature", signature)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = handler.HandleWebhook(c)
	return rec
}

func TestDonorboxWebhookHandler_HandleWebhook(t *testing.T) {
	donorID := uuid.New()

	payload := []byte(`{
		"donation": {
			"id": 98765,
			"donor": {
				"email": "marcus@example.com",
				"first_name": "Marcus",
				"last_name": "Lee",
				"country": "JM"
			},
			"amount": "25.00",
			"currency": "usd",
			"recurring": false,
			"status": "paid",
			"payment_method": "card",
			"donation_date": "2026-08-27T14:30:00Z",
			"campaign_name": "Jamaica Hurricane Recovery Fund",
			"referral_code": "AMB001"
		}
	}`)

	t.Run("records paid donation with dollars converted to cents", func(t *testing.T) {
		webhookRepo := new(MockWebhookRepository)
		donorRepo := new(MockDonorRepository)
		donationRepo := new(MockDonationRepository)
		referralRepo := new(MockReferralRepository)
		handler := newDonorboxWebhookTest(webhookRepo, donorRepo, donationRepo, referralRepo)

		webhookRepo.On("LogEvent", mock.Anything, mock.MatchedBy(func(ev *model.WebhookEvent) bool {
			return ev.Source == "donorbox" && ev.Verified && ev.EventID == nil
		})).Return(&model.WebhookEvent{ID: 3}, nil)

		donorRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(d *model.Donor) bool {
			return d.Email == "marcus@example.com" &&
				d.ConsentEmail &&
				d.ConsentSource != nil && *d.ConsentSource == "donorbox_donation"
		})).Return(&model.Donor{ID: donorID, Email: "marcus@example.com"}, nil)

		donationRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(d *model.Donation) bool {
			return d.ExtID == "98765" &&
				d.ExtSource == model.SourceDonorbox &&
				d.AmountCents == 2500 &&
				d.Currency == "USD" &&
				d.Frequency == model.FrequencyOneTime &&
				d.Status == model.DonationStatusSucceeded &&
				d.Method == "card"
		})).Return(&model.Donation{ID: 55, DonorID: donorID, Status: model.DonationStatusSucceeded}, nil)

		referralRepo.On("RecordConversion", mock.Anything, mock.Anything).Return(nil)
		webhookRepo.On("MarkProcessed", mock.Anything, int64(3)).Return(nil)

		rec := performDonorboxWebhook(handler, payload, donorboxSignature(payload, donorboxTestSecret))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"donation_id":55`)
		donationRepo.AssertExpectations(t)
		webhookRepo.AssertExpectations(t)
	})

	t.Run("rejects invalid signature and audits the delivery", func(t *testing.T) {
		webhookRepo := new(MockWebhookRepository)
		handler := newDonorboxWebhookTest(webhookRepo, new(MockDonorRepository), new(MockDonationRepository), new(MockReferralRepository))

		webhookRepo.On("LogEvent", mock.Anything, mock.MatchedBy(func(ev *model.WebhookEvent) bool {
			return ev.Source == "donorbox" && !ev.Verified && ev.EventType == "unverified"
		})).Return(&model.WebhookEvent{ID: 4}, nil)

		rec := performDonorboxWebhook(handler, payload, "not-a-valid-signature")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		webhookRepo.AssertExpectations(t)
	})

	t.Run("rejects missing signature", func(t *testing.T) {
		webhookRepo := new(MockWebhookRepository)
		handler := newDonorboxWebhookTest(webhookRepo, new(MockDonorRepository), new(MockDonationRepository), new(MockReferralRepository))

		webhookRepo.On("LogEvent", mock.Anything, mock.Anything).Return(&model.WebhookEvent{ID: 5}, nil)

		rec := performDonorboxWebhook(handler, payload, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unpaid status is stored as pending", func(t *testing.T) {
		pendingPayload := []byte(`{
			"donation": {
				"id": 98766,
				"donor": {"email": "marcus@example.com", "first_name": "Marcus", "last_name": "Lee"},
				"amount": "10.00",
				"status": "pre_authorized",
				"donation_date": "2026-08-27T14:30:00Z"
			}
		}`)

		webhookRepo := new(MockWebhookRepository)
		donorRepo := new(MockDonorRepository)
		donationRepo := new(MockDonationRepository)
		referralRepo := new(MockReferralRepository)
		handler := newDonorboxWebhookTest(webhookRepo, donorRepo, donationRepo, referralRepo)

		webhookRepo.On("LogEvent", mock.Anything, mock.Anything).Return(&model.WebhookEvent{ID: 6}, nil)
		donorRepo.On("Upsert", mock.Anything, mock.Anything).Return(&model.Donor{ID: donorID}, nil)
		donationRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(d *model.Donation) bool {
			return d.AmountCents == 1000 && d.Status == model.DonationStatusPending
		})).Return(&model.Donation{ID: 56, Status: model.DonationStatusPending}, nil)
		webhookRepo.On("MarkProcessed", mock.Anything, int64(6)).Return(nil)

		rec := performDonorboxWebhook(handler, pendingPayload, donorboxSignature(pendingPayload, donorboxTestSecret))

		assert.Equal(t, http.StatusOK, rec.Code)
		referralRepo.AssertNotCalled(t, "RecordConversion")
		donationRepo.AssertExpectations(t)
	})

	t.Run("monthly recurring donation maps to monthly frequency", func(t *testing.T) {
		recurringPayload := []byte(`{
			"donation": {
				"id": 98767,
				"donor": {"email": "marcus@example.com"},
				"amount": "50.00",
				"recurring": true,
				"frequency": "Monthly",
				"status": "paid",
				"donation_date": "2026-08-27T14:30:00Z"
			}
		}`)

		webhookRepo := new(MockWebhookRepository)
		donorRepo := new(MockDonorRepository)
		donationRepo := new(MockDonationRepository)
		handler := newDonorboxWebhookTest(webhookRepo, donorRepo, donationRepo, new(MockReferralRepository))

		webhookRepo.On("LogEvent", mock.Anything, mock.Anything).Return(&model.WebhookEvent{ID: 7}, nil)
		donorRepo.On("Upsert", mock.Anything, mock.Anything).Return(&model.Donor{ID: donorID}, nil)
		donationRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(d *model.Donation) bool {
			return d.AmountCents == 5000 && d.Frequency == model.FrequencyMonthly
		})).Return(&model.Donation{ID: 57, Status: model.DonationStatusSucceeded}, nil)
		webhookRepo.On("MarkProcessed", mock.Anything, int64(7)).Return(nil)

		rec := performDonorboxWebhook(handler, recurringPayload, donorboxSignature(recurringPayload, donorboxTestSecret))

		assert.Equal(t, http.StatusOK, rec.Code)
		donationRepo.AssertExpectations(t)
	})

	t.Run("numeric amount is accepted and converted to cents", func(t *testing.T) {
		numericPayload := []byte(`{
			"donation": {
				"id": 98768,
				"donor": {"email": "marcus@example.com", "first_name": "Marcus", "last_name": "Lee"},
				"amount": 25.00,
				"status": "paid",
				"donation_date": "2026-08-27T14:30:00Z"
			}
		}`)

		webhookRepo := new(MockWebhookRepository)
		donorRepo := new(MockDonorRepository)
		donationRepo := new(MockDonationRepository)
		handler := newDonorboxWebhookTest(webhookRepo, donorRepo, donationRepo, new(MockReferralRepository))

		webhookRepo.On("LogEvent", mock.Anything, mock.Anything).Return(&model.WebhookEvent{ID: 8}, nil)
		donorRepo.On("Upsert", mock.Anything, mock.Anything).Return(&model.Donor{ID: donorID}, nil)
		donationRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(d *model.Donation) bool {
			return d.ExtID == "98768" && d.AmountCents == 2500
		})).Return(&model.Donation{ID: 58, Status: model.DonationStatusSucceeded}, nil)
		webhookRepo.On("MarkProcessed", mock.Anything, int64(8)).Return(nil)

		rec := performDonorboxWebhook(handler, numericPayload, donorboxSignature(numericPayload, donorboxTestSecret))

		assert.Equal(t, http.StatusOK, rec.Code)
		donationRepo.AssertExpectations(t)
	})

	t.Run("malformed payload is audited then rejected", func(t *testing.T) {
		badPayload := []byte(`not json`)

		webhookRepo := new(MockWebhookRepository)
		handler := newDonorboxWebhookTest(webhookRepo, new(MockDonorRepository), new(MockDonationRepository), new(MockReferralRepository))

		webhookRepo.On("LogEvent", mock.Anything, mock.MatchedBy(func(ev *model.WebhookEvent) bool {
			return ev.Source == "donorbox" && ev.Verified && ev.Payload != nil
		})).Return(&model.WebhookEvent{ID: 9}, nil)

		rec := performDonorboxWebhook(handler, badPayload, donorboxSignature(badPayload, donorboxTestSecret))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Error parsing webhook")
		webhookRepo.AssertExpectations(t)
		webhookRepo.AssertNotCalled(t, "MarkProcessed")
	})
}

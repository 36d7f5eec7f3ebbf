package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/reliefworks/donation-service/internal/domain/model"
	"github.com/reliefworks/donation-service/internal/domain/repository"
	"go.uber.org/zap"
)

// DonationEvent is a provider webhook event normalized into store terms.
// AmountCents is always integer minor units; the provider handlers own the
// conversion from provider-native units.
type DonationEvent struct {
	ExternalID   string
	Source       model.DonationSource
	Email        string
	FirstName    string
	LastName     string
	Phone        *string
	Country      *string
	AmountCents  int64
	Currency     string
	Frequency    model.DonationFrequency
	Status       model.DonationStatus
	Method       string
	Campaign     *string
	ReferralCode string
	DonatedAt    time.Time
	Metadata     model.JSONB
	// ConsentSource marks where email consent was collected, e.g.
	// "donorbox_donation". Empty means the event grants no consent.
	ConsentSource string
}

// IngestService turns normalized provider events into consistent
// Donor/Donation/Referral writes. Idempotency lives in the repositories'
// keyed upserts; this layer owns donor resolution, referral attribution and
// the soft no-op rules.
type IngestService struct {
	donorRepo    repository.DonorRepository
	donationRepo repository.DonationRepository
	referralRepo repository.ReferralRepository
	logger       *zap.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(
	donorRepo repository.DonorRepository,
	donationRepo repository.DonationRepository,
	referralRepo repository.ReferralRepository,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		donorRepo:    donorRepo,
		donationRepo: donationRepo,
		referralRepo: referralRepo,
		logger:       logger,
	}
}

// RecordDonation upserts the donor by email, upserts the donation by its
// external id, and attributes the referral on first conversion. Events
// without a donor email are a soft no-op: logged and acknowledged, never
// escalated, since the provider would only redeliver them.
func (s *IngestService) RecordDonation(ctx context.Context, ev DonationEvent) (*model.Donation, error) {
	if ev.Email == "" {
		s.logger.Warn("Donation event carries no donor email, skipping",
			zap.String("ext_id", ev.ExternalID),
			zap.String("ext_source", string(ev.Source)))
		return nil, nil
	}
	if ev.AmountCents < 0 {
		return nil, fmt.Errorf("negative donation amount: %d", ev.AmountCents)
	}

	donor := &model.Donor{
		Email:     ev.Email,
		FirstName: ev.FirstName,
		LastName:  ev.LastName,
		Phone:     ev.Phone,
		Country:   ev.Country,
	}
	if ev.ReferralCode != "" {
		donor.ReferredBy = &ev.ReferralCode
	}
	if ev.ConsentSource != "" {
		now := time.Now()
		donor.ConsentEmail = true
		donor.ConsentTimestamp = &now
		donor.ConsentSource = &ev.ConsentSource
	}

	donor, err := s.donorRepo.Upsert(ctx, donor)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	donation := &model.Donation{
		DonorID:     donor.ID,
		ExtID:       ev.ExternalID,
		ExtSource:   ev.Source,
		AmountCents: ev.AmountCents,
		Currency:    ev.Currency,
		Frequency:   ev.Frequency,
		Status:      ev.Status,
		Method:      ev.Method,
		Campaign:    ev.Campaign,
		DonatedAt:   ev.DonatedAt,
		ProcessedAt: &now,
		Metadata:    ev.Metadata,
	}
	if ev.ReferralCode != "" {
		donation.ReferralCode = &ev.ReferralCode
	}

	donation, err = s.donationRepo.Upsert(ctx, donation)
	if err != nil {
		return nil, err
	}

	// Referral attribution: first succeeded donation converts the referral.
	// The repository's guarded insert keeps redeliveries from duplicating it.
	if ev.ReferralCode != "" && donation != nil && donation.Status == model.DonationStatusSucceeded {
		conversionDate := ev.DonatedAt
		referral := &model.Referral{
			ReferrerCode:    ev.ReferralCode,
			ReferredEmail:   ev.Email,
			ReferredDonorID: donor.ID,
			Converted:       true,
			FirstDonationID: &donation.ID,
			ConversionDate:  &conversionDate,
		}
		if err := s.referralRepo.RecordConversion(ctx, referral); err != nil {
			return nil, err
		}
	}

	return donation, nil
}

// TransitionStatus moves an existing donation to target (failed, disputed).
// The donor is resolved only through the stored donation, so events without
// donor identity still land. A blocked or unmatched transition is logged and
// acknowledged.
func (s *IngestService) TransitionStatus(ctx context.Context, extID string, source model.DonationSource, target model.DonationStatus, metadata model.JSONB) error {
	moved, err := s.donationRepo.TransitionStatus(ctx, extID, source, target, metadata)
	if err != nil {
		return err
	}

	if !moved {
		s.logger.Warn("Donation status transition skipped",
			zap.String("ext_id", extID),
			zap.String("ext_source", string(source)),
			zap.String("target_status", string(target)))
	}

	return nil
}

// SetMonthlyDonor flags a donor as a recurring giver based on subscription
// lifecycle events.
func (s *IngestService) SetMonthlyDonor(ctx context.Context, email string, active bool) error {
	if email == "" {
		s.logger.Warn("Subscription event carries no donor email, skipping")
		return nil
	}
	return s.donorRepo.SetMonthlyDonor(ctx, email, active)
}

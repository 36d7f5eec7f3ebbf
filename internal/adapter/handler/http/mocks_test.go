package http

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/mock"

	"github.com/reliefworks/donation-service/internal/domain/model"
)

// testValidator mirrors the server's request validator for handler tests.
type testValidator struct {
	validator *validator.Validate
}

func newTestValidator() *testValidator {
	return &testValidator{validator: validator.New()}
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

// MockDonorRepository is a mock implementation of DonorRepository
type MockDonorRepository struct {
	mock.Mock
}

func (m *MockDonorRepository) Upsert(ctx context.Context, donor *model.Donor) (*model.Donor, error) {
	args := m.Called(ctx, donor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donor), args.Error(1)
}

func (m *MockDonorRepository) GetByEmail(ctx context.Context, email string) (*model.Donor, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donor), args.Error(1)
}

func (m *MockDonorRepository) SetMonthlyDonor(ctx context.Context, email string, active bool) error {
	args := m.Called(ctx, email, active)
	return args.Error(0)
}

// MockDonationRepository is a mock implementation of DonationRepository
type MockDonationRepository struct {
	mock.Mock
}

func (m *MockDonationRepository) Upsert(ctx context.Context, donation *model.Donation) (*model.Donation, error) {
	args := m.Called(ctx, donation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationRepository) GetByExternalID(ctx context.Context, extID string, source model.DonationSource) (*model.Donation, error) {
	args := m.Called(ctx, extID, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Donation), args.Error(1)
}

func (m *MockDonationRepository) TransitionStatus(ctx context.Context, extID string, source model.DonationSource, target model.DonationStatus, metadata model.JSONB) (bool, error) {
	args := m.Called(ctx, extID, source, target, metadata)
	return args.Bool(0), args.Error(1)
}

func (m *MockDonationRepository) RecentSucceeded(ctx context.Context, limit int) ([]model.Donation, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Donation), args.Error(1)
}

// MockReferralRepository is a mock implementation of ReferralRepository
type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) RecordConversion(ctx context.Context, referral *model.Referral) error {
	args := m.Called(ctx, referral)
	return args.Error(0)
}

// MockWebhookRepository is a mock implementation of WebhookRepository
type MockWebhookRepository struct {
	mock.Mock
}

func (m *MockWebhookRepository) LogEvent(ctx context.Context, event *model.WebhookEvent) (*model.WebhookEvent, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WebhookEvent), args.Error(1)
}

func (m *MockWebhookRepository) MarkProcessed(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMetricsRepository is a mock implementation of MetricsRepository
type MockMetricsRepository struct {
	mock.Mock
}

func (m *MockMetricsRepository) CampaignMetrics(ctx context.Context) (*model.CampaignMetrics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CampaignMetrics), args.Error(1)
}

func (m *MockMetricsRepository) SnapshotByDate(ctx context.Context, date time.Time) (*model.KPISnapshot, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.KPISnapshot), args.Error(1)
}

func (m *MockMetricsRepository) UpsertSnapshot(ctx context.Context, snapshot *model.KPISnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockMetricsRepository) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LeaderboardEntry), args.Error(1)
}

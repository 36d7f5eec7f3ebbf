package database

import (
	"github.com/reliefworks/donation-service/internal/adapter/repository"
	domainRepo "github.com/reliefworks/donation-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Donor    domainRepo.DonorRepository
	Donation domainRepo.DonationRepository
	Referral domainRepo.ReferralRepository
	Webhook  domainRepo.WebhookRepository
	Metrics  domainRepo.MetricsRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Donor:    repository.NewDonorRepository(db, logger),
		Donation: repository.NewDonationRepository(db, logger),
		Referral: repository.NewReferralRepository(db, logger),
		Webhook:  repository.NewWebhookRepository(db, logger),
		Metrics:  repository.NewMetricsRepository(db, logger),
	}
}

package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reliefworks/donation-service/internal/config"
)

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		Name:     "donations",
		User:     "donation_svc",
		Password: "s3cret",
	}

	t.Run("defaults to sslmode disable", func(t *testing.T) {
		assert.Equal(t,
			"host=db.internal port=5432 user=donation_svc password=s3cret dbname=donations sslmode=disable",
			cfg.DSN(),
		)
	})

	t.Run("carries the configured ssl mode", func(t *testing.T) {
		withSSL := cfg
		withSSL.SSLMode = "require"

		assert.Equal(t,
			"host=db.internal port=5432 user=donation_svc password=s3cret dbname=donations sslmode=require",
			withSSL.DSN(),
		)
	})
}

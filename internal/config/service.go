package config

type ServiceConfig struct {
	Name                  string `yaml:"name"`
	Environment           string `yaml:"environment"`
	Version               string `yaml:"version"`
	ClientURL             string `yaml:"client_url"`
	CampaignName          string `yaml:"campaign_name"`
	StripeSecretKey       string `yaml:"stripe_secret_key"`
	StripeWebhookSecret   string `yaml:"stripe_webhook_secret"`
	DonorboxWebhookSecret string `yaml:"donorbox_webhook_secret"`
}

// FundraisingConfig carries the campaign goal. The goal is injected
// configuration rather than a literal so per-campaign deployments and tests
// can override it.
type FundraisingConfig struct {
	GoalCents int64 `yaml:"goal_cents"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

package config

import (
	"os"
)

type Config struct {
	AppPort   string
	TableName string
	AWSRegion string

	AuthJWTSecret   string
	IDPClientID     string
	IDPClientSecret string
	IDPTokenURL     string

	PaymentBaseURL        string
	PaymentSecretKey      string
	PaymentPublishableKey string
	PaymentWebhookSecret  string

	SearchHost   string
	SearchAPIKey string

	MailBaseURL string
	MailAPIKey  string
	MailFrom    string

	PrintBaseURL     string
	PrintShopID      string
	PrintAccessToken string

	RedisAddr     string
	RedisPassword string

	FrontendBaseURL string
}

func Load() Config {
	return Config{
		AppPort:   get("APP_PORT", "8080"),
		TableName: must("STORE_TABLE_NAME"),
		AWSRegion: get("AWS_REGION", "us-east-1"),

		AuthJWTSecret:   must("AUTH_JWT_SECRET"),
		IDPClientID:     get("IDP_CLIENT_ID", ""),
		IDPClientSecret: get("IDP_CLIENT_SECRET", ""),
		IDPTokenURL:     get("IDP_TOKEN_URL", ""),

		PaymentBaseURL:        get("PAYMENT_BASE_URL", "https://api.payvault.dev/v1"),
		PaymentSecretKey:      must("PAYMENT_SECRET_KEY"),
		PaymentPublishableKey: get("PAYMENT_PUBLISHABLE_KEY", ""),
		PaymentWebhookSecret:  get("PAYMENT_WEBHOOK_SECRET", ""),

		SearchHost:   get("SEARCH_HOST", ""),
		SearchAPIKey: get("SEARCH_API_KEY", ""),

		MailBaseURL: get("MAIL_BASE_URL", ""),
		MailAPIKey:  get("MAIL_API_KEY", ""),
		MailFrom:    get("MAIL_FROM", "hello@counselorcorner.shop"),

		PrintBaseURL:     get("PRINT_BASE_URL", ""),
		PrintShopID:      get("PRINT_SHOP_ID", ""),
		PrintAccessToken: get("PRINT_ACCESS_TOKEN", ""),

		RedisAddr:     get("REDIS_ADDR", ""),
		RedisPassword: get("REDIS_PASSWORD", ""),

		FrontendBaseURL: get("FRONTEND_BASE_URL", "http://localhost:3000"),
	}
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}

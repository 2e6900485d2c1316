package types

import "time"

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"30"`

	// Comma separated list, "*" allows any origin
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Comma separated IPs or CIDRs of reverse proxies whose X-Forwarded-For
	// is believed. Empty means the peer address is the client.
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	// Organisation
	OrgName    string `envconfig:"ORG_NAME" default:"Vridh Ashram"`
	OrgEmail   string `envconfig:"ORG_EMAIL" default:"info@vridhashram.org"`
	OrgPhone   string `envconfig:"ORG_PHONE"`
	OrgAddress string `envconfig:"ORG_ADDRESS"`
	OrgWebsite string `envconfig:"ORG_WEBSITE"`
	OrgFounded string `envconfig:"ORG_FOUNDED"`
	OrgMission string `envconfig:"ORG_MISSION"`
	AdminEmail string `envconfig:"ADMIN_EMAIL" default:"admin@vridhashram.org"`

	// Cognito Auth
	CognitoUserPoolID string `envconfig:"COGNITO_USER_POOL_ID"`
	CognitoClientID   string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoIssuerURL  string `envconfig:"COGNITO_ISSUER_URL"`
	AdminGroup        string `envconfig:"ADMIN_GROUP" default:"admin"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	// S3 storage for payment proofs and gallery photos
	S3BucketName    string `envconfig:"S3_BUCKET_NAME"`
	S3PublicBaseURL string `envconfig:"S3_PUBLIC_BASE_URL"`
	ProofPrefix     string `envconfig:"S3_PROOF_PREFIX" default:"ngo-donations"`
	PhotoPrefix     string `envconfig:"S3_PHOTO_PREFIX" default:"ngo-photos"`
	MaxUploadBytes  int64  `envconfig:"MAX_UPLOAD_BYTES" default:"5242880"`

	// Mail. Resend takes precedence when RESEND_API_KEY is set.
	MailFromName  string        `envconfig:"EMAIL_FROM_NAME" default:"Vridh Ashram"`
	MailFrom      string        `envconfig:"EMAIL_FROM"`
	SMTPHost      string        `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort      int           `envconfig:"SMTP_PORT" default:"465"`
	SMTPSecure    *bool         `envconfig:"SMTP_SECURE"`
	SMTPUser      string        `envconfig:"EMAIL_USER"`
	SMTPPass      string        `envconfig:"EMAIL_PASS"`
	SMTPTimeout   time.Duration `envconfig:"SMTP_TIMEOUT" default:"10s"`
	ResendAPIKey  string        `envconfig:"RESEND_API_KEY"`
	ResendTimeout time.Duration `envconfig:"RESEND_TIMEOUT" default:"10s"`

	// Stripe
	StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY"`
	StripeCurrency  string `envconfig:"STRIPE_DEFAULT_CURRENCY" default:"usd"`

	// Redis backed submission throttle, disabled when REDIS_URL is empty
	RedisURL           string        `envconfig:"REDIS_URL"`
	SubmitLimit        int           `envconfig:"SUBMIT_LIMIT" default:"10"`
	SubmitLimitWindow  time.Duration `envconfig:"SUBMIT_LIMIT_WINDOW" default:"1h"`
	RateLimitKeyPrefix string        `envconfig:"RATE_LIMIT_KEY_PREFIX" default:"vridhashram:submit"`
}

// SMTPImplicitTLS reports whether the SMTP connection should use TLS from
// the first byte. Defaults to true on port 465.
func (c *Config) SMTPImplicitTLS() bool {
	if c.SMTPSecure != nil {
		return *c.SMTPSecure
	}
	return c.SMTPPort == 465
}

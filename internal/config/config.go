package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// ProviderConfig holds the provider selection and credentials. Secret fields
// are ciphertext when SECRET_KEY is set.
type ProviderConfig struct {
	Provider  string `envconfig:"WHATSAPP_PROVIDER" default:"ultramsg"`
	SecretKey string `envconfig:"SECRET_KEY"`

	UltraMsgInstanceID  string `envconfig:"ULTRAMSG_INSTANCE_ID"`
	UltraMsgToken       string `envconfig:"ULTRAMSG_TOKEN"`
	UltraMsgBaseURL     string `envconfig:"ULTRAMSG_BASE_URL" default:"https://api.ultramsg.com"`
	UltraMsgInsecureTLS bool   `envconfig:"ULTRAMSG_INSECURE_TLS" default:"false"`

	Dialog360APIKey  string `envconfig:"DIALOG360_API_KEY"`
	Dialog360BaseURL string `envconfig:"DIALOG360_BASE_URL" default:"https://waba.360dialog.io"`

	WatiEndpoint    string `envconfig:"WATI_ENDPOINT"`
	WatiAPIKey      string `envconfig:"WATI_API_KEY"`
	WatiInsecureTLS bool   `envconfig:"WATI_INSECURE_TLS" default:"false"`

	TwilioAccountSID     string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken      string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppNumber string `envconfig:"TWILIO_WHATSAPP_NUMBER"`
	TwilioBaseURL        string `envconfig:"TWILIO_BASE_URL" default:"https://api.twilio.com"`

	HTTPTimeout        time.Duration `envconfig:"PROVIDER_HTTP_TIMEOUT" default:"30s"`
	BreakerFailures    uint32        `envconfig:"PROVIDER_BREAKER_FAILURES" default:"5"`
	BreakerOpenTimeout time.Duration `envconfig:"PROVIDER_BREAKER_OPEN_TIMEOUT" default:"30s"`
}

// MessagingConfig is shared by every binary that dispatches messages.
type MessagingConfig struct {
	ProviderConfig

	OTPLength        int `envconfig:"OTP_LENGTH" default:"6"`
	OTPExpiryMinutes int `envconfig:"OTP_EXPIRY_MINUTES" default:"5"`

	PhoneMinLength int    `envconfig:"PHONE_MIN_LENGTH" default:"9"`
	PhoneMaxLength int    `envconfig:"PHONE_MAX_LENGTH" default:"15"`
	DefaultCountry string `envconfig:"DEFAULT_COUNTRY" default:"EG"`

	BusinessName string `envconfig:"BUSINESS_NAME"`
	SupportPhone string `envconfig:"SUPPORT_PHONE"`

	OrderNotificationsEnabled bool     `envconfig:"ORDER_NOTIFICATIONS_ENABLED" default:"true"`
	OrderNotificationStatuses []string `envconfig:"ORDER_NOTIFICATION_STATUSES" default:"pending,processing,complete,canceled,holded,shipped,refunded"`
	OrderTemplatesFile        string   `envconfig:"ORDER_TEMPLATES_FILE"`
	OrderLinkBaseURL          string   `envconfig:"ORDER_LINK_BASE_URL"`
}

type DBConfig struct {
	DBDSN             string        `envconfig:"DB_DSN"`
	DBMaxConns        int32         `envconfig:"DB_POOL_MAX_CONNS" default:"10"`
	DBMinConns        int32         `envconfig:"DB_POOL_MIN_CONNS" default:"0"`
	DBMaxConnLifetime time.Duration `envconfig:"DB_POOL_MAX_CONN_LIFETIME" default:"30m"`
	DBMaxConnIdleTime time.Duration `envconfig:"DB_POOL_MAX_CONN_IDLE_TIME" default:"5m"`
	DBHealthCheck     time.Duration `envconfig:"DB_POOL_HEALTH_CHECK_PERIOD" default:"30s"`
}

type SQSConfig struct {
	AWSRegion          string `envconfig:"AWS_REGION" default:"us-east-1"`
	SQSQueueURL        string `envconfig:"SQS_QUEUE_URL"`
	LocalstackEndpoint string `envconfig:"LOCALSTACK_ENDPOINT"`
}

type APIConfig struct {
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	MessagingConfig
	DBConfig
	SQSConfig
}

type WorkerConfig struct {
	Port        string `envconfig:"PORT" default:"8080"`
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	MessagingConfig
	DBConfig
	SQSConfig

	SQSWaitTime       int32 `envconfig:"SQS_WAIT_TIME" default:"20"`
	SQSMaxMsgs        int32 `envconfig:"SQS_MAX_MSGS" default:"10"`
	SQSVizTimeout     int32 `envconfig:"SQS_VISIBILITY_TIMEOUT" default:"60"`
	WorkerConcurrency int   `envconfig:"WORKER_CONCURRENCY" default:"20"`
}

type MockProviderConfig struct {
	Port      string `envconfig:"PORT" default:"8089"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// Outcome per vendor: ok, reject, error or slow.
	UltraMsgOutcome  string        `envconfig:"MOCK_ULTRAMSG_OUTCOME" default:"ok"`
	Dialog360Outcome string        `envconfig:"MOCK_DIALOG360_OUTCOME" default:"ok"`
	WatiOutcome      string        `envconfig:"MOCK_WATI_OUTCOME" default:"ok"`
	TwilioOutcome    string        `envconfig:"MOCK_TWILIO_OUTCOME" default:"ok"`
	SlowDelay        time.Duration `envconfig:"MOCK_SLOW_DELAY" default:"35s"`
}

type SealConfig struct {
	SecretKey string `envconfig:"SECRET_KEY" required:"true"`
}

// Validate checks the values envconfig cannot.
func (c MessagingConfig) Validate() error {
	if c.PhoneMinLength <= 0 || c.PhoneMaxLength < c.PhoneMinLength {
		return fmt.Errorf("invalid phone length bounds [%d,%d]", c.PhoneMinLength, c.PhoneMaxLength)
	}
	if c.OTPLength <= 0 {
		return fmt.Errorf("OTP_LENGTH must be positive, got %d", c.OTPLength)
	}
	if c.OTPExpiryMinutes <= 0 {
		return fmt.Errorf("OTP_EXPIRY_MINUTES must be positive, got %d", c.OTPExpiryMinutes)
	}
	return nil
}

// StatusEnabled reports whether order notifications are sent for status.
func (c MessagingConfig) StatusEnabled(status string) bool {
	if !c.OrderNotificationsEnabled {
		return false
	}
	for _, s := range c.OrderNotificationStatuses {
		if strings.EqualFold(strings.TrimSpace(s), status) {
			return true
		}
	}
	return false
}

// LoadTemplates reads status template overrides from a YAML mapping of
// status to body. An empty path yields no overrides.
func LoadTemplates(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ORDER_TEMPLATES_FILE: %w", err)
	}
	out := map[string]string{}
	if err := yaml.UnmarshalStrict(b, &out); err != nil {
		return nil, fmt.Errorf("parse ORDER_TEMPLATES_FILE: %w", err)
	}
	return out, nil
}

func LoadAPI() APIConfig {
	var cfg APIConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	if err := cfg.MessagingConfig.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

func LoadWorker() WorkerConfig {
	var cfg WorkerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	if err := cfg.MessagingConfig.Validate(); err != nil {
		panic(err)
	}
	if cfg.SQSQueueURL == "" {
		panic("SQS_QUEUE_URL is required for the worker")
	}
	return cfg
}

func LoadMockProvider() MockProviderConfig {
	var cfg MockProviderConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

func LoadSeal() SealConfig {
	var cfg SealConfig
	if err := envconfig.Process("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

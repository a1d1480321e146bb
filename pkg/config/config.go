package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Basket        BasketConfig
	Checkout      CheckoutConfig
	SMTP          SMTPConfig
	Notifications NotificationsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.parseAmounts(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VELORA_APP_ENV" required:"true"`
	Port         string `envconfig:"VELORA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VELORA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VELORA_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"VELORA_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VELORA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VELORA_DB_DSN"`
	Driver string `envconfig:"VELORA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VELORA_DB_HOST"`
	LegacyPort     int    `envconfig:"VELORA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VELORA_DB_USER"`
	LegacyPassword string `envconfig:"VELORA_DB_PASSWORD"`
	LegacyName     string `envconfig:"VELORA_DB_NAME"`
	LegacySSLMode  string `envconfig:"VELORA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VELORA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VELORA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VELORA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VELORA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VELORA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VELORA_REDIS_ADDR"`
	Password     string        `envconfig:"VELORA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VELORA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VELORA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VELORA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VELORA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VELORA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VELORA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"VELORA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"VELORA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"VELORA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"VELORA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VELORA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VELORA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VELORA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VELORA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VELORA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"VELORA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"VELORA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"VELORA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"VELORA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"VELORA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"VELORA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VELORA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VELORA_AUTO_MIGRATE" default:"false"`
}

// BasketConfig controls the guest basket lifecycle.
type BasketConfig struct {
	GuestTTL   time.Duration `envconfig:"VELORA_BASKET_GUEST_TTL" default:"168h"`
	CookieName string        `envconfig:"VELORA_BASKET_COOKIE_NAME" default:"basket"`
}

// CheckoutConfig tunes the order placement transaction. Shipping amounts are
// read as strings and parsed once at startup so a malformed value fails fast
// instead of surfacing mid-checkout.
type CheckoutConfig struct {
	MaxAttempts           int           `envconfig:"VELORA_CHECKOUT_MAX_ATTEMPTS" default:"3"`
	RetryBackoff          time.Duration `envconfig:"VELORA_CHECKOUT_RETRY_BACKOFF" default:"50ms"`
	FreeShippingThreshold string        `envconfig:"VELORA_CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"200.00"`
	FlatShippingFee       string        `envconfig:"VELORA_CHECKOUT_FLAT_SHIPPING_FEE" default:"8.00"`

	amountsParsed         bool
	freeShippingThreshold decimal.Decimal
	flatShippingFee       decimal.Decimal
}

func (c *CheckoutConfig) parseAmounts() error {
	threshold, err := decimal.NewFromString(c.FreeShippingThreshold)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvCheckoutFreeShippingThreshold, err)
	}
	fee, err := decimal.NewFromString(c.FlatShippingFee)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvCheckoutFlatShippingFee, err)
	}
	c.freeShippingThreshold = threshold
	c.flatShippingFee = fee
	c.amountsParsed = true
	return nil
}

// FreeShippingThresholdAmount returns the subtotal above which shipping is
// free. Configs built as struct literals parse the string field on read.
func (c CheckoutConfig) FreeShippingThresholdAmount() decimal.Decimal {
	if c.amountsParsed {
		return c.freeShippingThreshold
	}
	amount, _ := decimal.NewFromString(c.FreeShippingThreshold)
	return amount
}

// FlatShippingFeeAmount returns the flat fee charged below the threshold.
func (c CheckoutConfig) FlatShippingFeeAmount() decimal.Decimal {
	if c.amountsParsed {
		return c.flatShippingFee
	}
	amount, _ := decimal.NewFromString(c.FlatShippingFee)
	return amount
}

type SMTPConfig struct {
	Host     string `envconfig:"VELORA_SMTP_HOST"`
	Port     int    `envconfig:"VELORA_SMTP_PORT" default:"587"`
	Username string `envconfig:"VELORA_SMTP_USERNAME"`
	Password string `envconfig:"VELORA_SMTP_PASSWORD"`
	From     string `envconfig:"VELORA_SMTP_FROM"`
}

type NotificationsConfig struct {
	AdminEmail          string        `envconfig:"VELORA_NOTIFICATIONS_ADMIN_EMAIL"`
	VerificationTTL     time.Duration `envconfig:"VELORA_NOTIFICATIONS_VERIFICATION_TTL" default:"24h"`
	VerificationBaseURL string        `envconfig:"VELORA_NOTIFICATIONS_VERIFICATION_BASE_URL"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VELORA_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"VELORA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"VELORA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"VELORA_PUBSUB_ORDERS_TOPIC" default:"velora-order-events"`
	OrdersSubscription string `envconfig:"VELORA_PUBSUB_ORDERS_SUBSCRIPTION" default:"velora-order-events-notifications"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"VELORA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"VELORA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"VELORA_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"VELORA_OUTBOX_IDEMPOTENCY_TTL" default:"720h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

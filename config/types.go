package config

type Config struct {
	Mongo          MongoConfig          `mapstructure:"mongo"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Server         ServerConfig         `mapstructure:"server"`
	Authentication AuthenticationConfig `mapstructure:"authentication"`
	Email          EmailConfig          `mapstructure:"email"`
	Booking        BookingConfig        `mapstructure:"booking"`
	PayOS          PayOSConfig          `mapstructure:"payos"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Observability  ObservabilityConfig  `mapstructure:"observability"`
	Nats           NatsConfig           `mapstructure:"nats"`
}

type NatsConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

type MongoConfig struct {
	URI               string `mapstructure:"uri"`
	Database          string `mapstructure:"database"`
	ConnectTimeoutSec int    `mapstructure:"connect_timeout_seconds"`
	MaxPoolSize       uint64 `mapstructure:"max_pool_size"`
}

type RedisConfig struct {
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type ServerConfig struct {
	Port           int        `mapstructure:"port"`
	TimeoutSeconds int        `mapstructure:"timeout_seconds"`
	Environment    string     `mapstructure:"environment"`
	Domain         string     `mapstructure:"domain"`
	CORS           CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAgeSeconds    int      `mapstructure:"max_age_seconds"`
}

type AuthenticationConfig struct {
	Paseto PasetoConfig `mapstructure:"paseto"`
}

type PasetoConfig struct {
	LocalKeyHex      string `mapstructure:"local_key_hex"`
	Issuer           string `mapstructure:"issuer"`
	Audience         string `mapstructure:"audience"`
	AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
}

type EmailConfig struct {
	Enabled bool       `mapstructure:"enabled"`
	From    string     `mapstructure:"from"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	UseTLS         bool   `mapstructure:"use_tls"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// BookingConfig holds the pricing and scheduling knobs for the appointment
// lifecycle. Amounts are VND.
type BookingConfig struct {
	DepositRate        float64 `mapstructure:"deposit_rate"`             // e.g. 0.2 for a 20% deposit
	InspectionFee      int64   `mapstructure:"inspection_fee"`           // flat fee for inspection-only bookings
	DefaultDurationMin int     `mapstructure:"default_duration_minutes"` // fallback when no service type is chosen
	SlotGranularityMin int     `mapstructure:"slot_granularity_minutes"`
	InventoryHoldHours int     `mapstructure:"inventory_hold_hours"`
	ReminderLeadHours  int     `mapstructure:"reminder_lead_hours"`
}

type PayOSConfig struct {
	ClientID          string `mapstructure:"client_id"`
	APIKey            string `mapstructure:"api_key"`
	ChecksumKey       string `mapstructure:"checksum_key"`
	BaseURL           string `mapstructure:"base_url"`
	FrontendBaseURL   string `mapstructure:"frontend_base_url"`
	LinkExpiryMinutes int    `mapstructure:"link_expiry_minutes"`
}

type ObservabilityConfig struct {
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level"`  // debug, info, warn, error
	Format string       `mapstructure:"format"` // text, json
	Output OutputConfig `mapstructure:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout"`
	File   FileLogConfig `mapstructure:"file"`
	Loki   LokiConfig    `mapstructure:"loki"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type LokiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

func (c *Config) Validate() error {
	if c.Booking.DepositRate < 0 || c.Booking.DepositRate > 1 {
		return ErrInvalidDepositRate
	}
	if c.Booking.SlotGranularityMin < 0 {
		return ErrInvalidGranularity
	}
	return nil
}

package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Logger      LoggerConfig   `mapstructure:"logger"`
	Fees        FeesConfig     `mapstructure:"fees"`
	Processor   ProcessorConfig `mapstructure:"processor"`
	Exchange    ExchangeConfig `mapstructure:"exchange"`
	Checkout    CheckoutConfig `mapstructure:"checkout"`
	Secrets     SecretsConfig  `mapstructure:"secrets"`
	Notifier    NotifierConfig `mapstructure:"notifier"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`    // seconds
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"` // seconds
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"timeFormat"`
	CallerInfo bool   `mapstructure:"callerInfo"`
}

// FeesConfig centralizes the platform's fee rates. Rates live here and
// nowhere else; the calculator is built from this section once at startup.
type FeesConfig struct {
	PlatformRate string `mapstructure:"platformRate"` // e.g. "0.03"
	ProviderRate string `mapstructure:"providerRate"` // e.g. "0.005"
}

// ProcessorConfig contains external payment-processor settings
type ProcessorConfig struct {
	BaseURL     string        `mapstructure:"baseUrl"`
	APIKey      string        `mapstructure:"apiKey"`
	IPNSecret   string        `mapstructure:"ipnSecret"`
	CallbackURL string        `mapstructure:"callbackUrl"`
	Timeout     time.Duration `mapstructure:"timeout"` // seconds
}

// ExchangeConfig contains exchange poll-verification settings
type ExchangeConfig struct {
	Hosts          []string      `mapstructure:"hosts"`
	PerHostTimeout time.Duration `mapstructure:"perHostTimeout"` // seconds
	SearchWindow   time.Duration `mapstructure:"searchWindow"`   // minutes
}

// CheckoutConfig contains hosted checkout settings
type CheckoutConfig struct {
	BaseURL              string        `mapstructure:"baseUrl"`
	DefaultPayCurrency   string        `mapstructure:"defaultPayCurrency"`
	ProcessorExpiry      time.Duration `mapstructure:"processorExpiry"`      // minutes
	DirectTransferExpiry time.Duration `mapstructure:"directTransferExpiry"` // minutes
}

// SecretsConfig contains the at-rest encryption settings for merchant secrets
type SecretsConfig struct {
	Passphrase string `mapstructure:"passphrase"`
}

// NotifierConfig contains merchant webhook delivery settings
type NotifierConfig struct {
	Timeout time.Duration `mapstructure:"timeout"` // seconds
}

package config

import (
	"fmt"
	"strings"
	"time"

	"corebank/internal/core/domain"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Log        LogConfig        `mapstructure:"log"`
	Bank       BankConfig       `mapstructure:"bank"`
	Conversion ConversionConfig `mapstructure:"conversion"`
	Tan        TanConfig        `mapstructure:"tan"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// BankConfig holds instance-wide banking parameters.
type BankConfig struct {
	// Currency is the single regional currency of this instance.
	Currency string `mapstructure:"currency"`
	// FiatCurrency is the counterpart currency of cashin/cashout.
	FiatCurrency string `mapstructure:"fiat_currency"`
	// AdminLogin names the house account crediting cashouts.
	AdminLogin string `mapstructure:"admin_login"`
	// AdminPassword, when set, creates the admin account on startup if it
	// does not exist yet.
	AdminPassword string `mapstructure:"admin_password"`
	// IbanCountry prefixes generated IBANs.
	IbanCountry string `mapstructure:"iban_country"`
	// DefaultDebtThreshold applies to accounts registered without one,
	// wire amount format ("KUDOS:0").
	DefaultDebtThreshold string `mapstructure:"default_debt_threshold"`
	// InstantWithdrawalConfirm confirms withdrawals directly on selection.
	InstantWithdrawalConfirm bool `mapstructure:"instant_withdrawal_confirm"`
}

// ConversionRateConfig holds one direction of conversion parameters, amounts
// in wire format.
type ConversionRateConfig struct {
	Ratio      string `mapstructure:"ratio"`
	Fee        string `mapstructure:"fee"`
	MinAmount  string `mapstructure:"min_amount"`
	TinyAmount string `mapstructure:"tiny_amount"`
	Rounding   string `mapstructure:"rounding"` // nearest, zero, up
}

type ConversionConfig struct {
	Cashin  ConversionRateConfig `mapstructure:"cashin"`
	Cashout ConversionRateConfig `mapstructure:"cashout"`
}

// Rate parses the section into an immutable snapshot; creditCurrency is the
// currency of fee/tiny thresholds, debitCurrency that of the minimum.
func (c ConversionRateConfig) Rate(debitCurrency, creditCurrency string) (domain.ConversionRate, error) {
	ratio, err := domain.ParseDecimal(c.Ratio)
	if err != nil {
		return domain.ConversionRate{}, fmt.Errorf("conversion ratio: %w", err)
	}
	fee, err := domain.ParseAmountAs(c.Fee, creditCurrency)
	if err != nil {
		return domain.ConversionRate{}, fmt.Errorf("conversion fee: %w", err)
	}
	min, err := domain.ParseAmountAs(c.MinAmount, debitCurrency)
	if err != nil {
		return domain.ConversionRate{}, fmt.Errorf("conversion min amount: %w", err)
	}
	tiny, err := domain.ParseAmountAs(c.TinyAmount, creditCurrency)
	if err != nil {
		return domain.ConversionRate{}, fmt.Errorf("conversion tiny amount: %w", err)
	}
	rounding, err := domain.ParseRoundingMode(c.Rounding)
	if err != nil {
		return domain.ConversionRate{}, err
	}
	return domain.ConversionRate{
		Ratio:      ratio,
		Fee:        fee,
		MinAmount:  min,
		TinyAmount: tiny,
		Rounding:   rounding,
	}, nil
}

// TanConfig holds challenge issuance parameters.
type TanConfig struct {
	RetryLimit int           `mapstructure:"retry_limit"`
	Validity   time.Duration `mapstructure:"validity"`
	// Channel is the default delivery channel: log or telegram.
	Channel string `mapstructure:"channel"`
	// TelegramToken enables the telegram sender when set.
	TelegramToken string `mapstructure:"telegram_token"`
	// TelegramChats maps account logins to chat ids.
	TelegramChats map[string]int64 `mapstructure:"telegram_chats"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: BANK_.
// Nested keys use underscore: BANK_DATABASE_HOST, BANK_JWT_SECRET, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "corebank")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "corebank")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("bank.currency", "KUDOS")
	v.SetDefault("bank.fiat_currency", "EUR")
	v.SetDefault("bank.admin_login", "admin")
	v.SetDefault("bank.admin_password", "")
	v.SetDefault("bank.iban_country", "CH")
	v.SetDefault("bank.default_debt_threshold", "KUDOS:0")
	v.SetDefault("bank.instant_withdrawal_confirm", false)
	v.SetDefault("conversion.cashin.ratio", "1")
	v.SetDefault("conversion.cashin.fee", "KUDOS:0")
	v.SetDefault("conversion.cashin.min_amount", "EUR:0")
	v.SetDefault("conversion.cashin.tiny_amount", "KUDOS:0")
	v.SetDefault("conversion.cashin.rounding", "nearest")
	v.SetDefault("conversion.cashout.ratio", "1")
	v.SetDefault("conversion.cashout.fee", "EUR:0")
	v.SetDefault("conversion.cashout.min_amount", "KUDOS:0")
	v.SetDefault("conversion.cashout.tiny_amount", "EUR:0")
	v.SetDefault("conversion.cashout.rounding", "nearest")
	v.SetDefault("tan.retry_limit", 3)
	v.SetDefault("tan.validity", "5m")
	v.SetDefault("tan.channel", "log")
	v.SetDefault("tan.telegram_token", "")

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: BANK_DATABASE_HOST -> database.host
	v.SetEnvPrefix("BANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

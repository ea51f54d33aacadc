package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Ledger backends selectable through LEDGER_BACKEND.
const (
	LedgerBackendPostgres = "postgres"
	LedgerBackendMemory   = "memory"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Ledger        LedgerConfig
	Organizations OrganizationsConfig
	Verification  VerificationConfig
	Cache         CacheConfig
	Docs          DocsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig validates access tokens issued by the identity provider.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// LedgerConfig selects the world state backend used outside a peer.
type LedgerConfig struct {
	Backend            string
	FallbackToMemory   bool
	MaxConflictRetries int
	AutoMigrate        bool
	ChaincodeName      string
	// ChaincodeAddress and ChaincodeID run the chaincode as an external
	// service instead of dialing the peer.
	ChaincodeAddress string
	ChaincodeID      string
}

// OrganizationsConfig names the MSP IDs the authorization policy trusts.
type OrganizationsConfig struct {
	Issuer      string
	Departments []string
	Verifiers   []string
}

// VerificationConfig controls the public verification URL.
type VerificationConfig struct {
	BaseURL     string
	Institution string
}

// CacheConfig governs the read-through cache for query transactions.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// DocsConfig toggles the swagger UI.
type DocsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: v.GetString("JWT_AUDIENCE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	retries := v.GetInt("LEDGER_MAX_CONFLICT_RETRIES")
	if retries < 0 {
		retries = 0
	}
	cfg.Ledger = LedgerConfig{
		Backend:            strings.ToLower(v.GetString("LEDGER_BACKEND")),
		FallbackToMemory:   v.GetBool("LEDGER_FALLBACK_TO_MEMORY"),
		MaxConflictRetries: retries,
		AutoMigrate:        v.GetBool("LEDGER_AUTO_MIGRATE"),
		ChaincodeName:      v.GetString("CHAINCODE_NAME"),
		ChaincodeAddress:   v.GetString("CHAINCODE_SERVER_ADDRESS"),
		ChaincodeID:        v.GetString("CHAINCODE_ID"),
	}

	cfg.Organizations = OrganizationsConfig{
		Issuer:      v.GetString("ORG_ISSUER_MSP"),
		Departments: splitAndTrim(v.GetString("ORG_DEPARTMENT_MSPS")),
		Verifiers:   splitAndTrim(v.GetString("ORG_VERIFIER_MSPS")),
	}

	cfg.Verification = VerificationConfig{
		BaseURL:     strings.TrimRight(v.GetString("VERIFICATION_BASE_URL"), "/"),
		Institution: v.GetString("INSTITUTION_NAME"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_QUERY_CACHE"),
		TTL:     parseDuration(v.GetString("QUERY_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Docs = DocsConfig{
		Enabled: v.GetBool("ENABLE_DOCS") && cfg.Env != EnvProduction,
	}

	return cfg
}

// DefaultOrganizations returns the MSP IDs used when nothing is configured.
func DefaultOrganizations() OrganizationsConfig {
	return OrganizationsConfig{
		Issuer:      "NITWarangalMSP",
		Departments: []string{"DepartmentsMSP"},
		Verifiers:   []string{"VerifiersMSP"},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academic_ledger")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("LEDGER_BACKEND", LedgerBackendPostgres)
	v.SetDefault("LEDGER_FALLBACK_TO_MEMORY", true)
	v.SetDefault("LEDGER_MAX_CONFLICT_RETRIES", 3)
	v.SetDefault("LEDGER_AUTO_MIGRATE", true)
	v.SetDefault("CHAINCODE_NAME", "academic-records")

	orgs := DefaultOrganizations()
	v.SetDefault("ORG_ISSUER_MSP", orgs.Issuer)
	v.SetDefault("ORG_DEPARTMENT_MSPS", strings.Join(orgs.Departments, ","))
	v.SetDefault("ORG_VERIFIER_MSPS", strings.Join(orgs.Verifiers, ","))

	v.SetDefault("VERIFICATION_BASE_URL", "https://verify.nit.edu")
	v.SetDefault("INSTITUTION_NAME", "National Institute of Technology Warangal")

	v.SetDefault("ENABLE_QUERY_CACHE", false)
	v.SetDefault("QUERY_CACHE_TTL", "5m")
	v.SetDefault("ENABLE_DOCS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is empty because every field tag carries the full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App         AppConfig
	Store       StoreConfig
	Session     SessionConfig
	Admin       AdminConfig
	Limits      LimitsConfig
	Password    PasswordConfig
	Credentials CredentialsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BILLMINDER_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"BILLMINDER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BILLMINDER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

const (
	StoreDriverSQLite = "sqlite"
	StoreDriverFile   = "file"
)

// StoreConfig selects the snapshot backend. The sqlite driver persists the
// snapshot tables in an embedded database file; the file driver writes a
// single JSON document.
type StoreConfig struct {
	Driver string `envconfig:"BILLMINDER_STORE_DRIVER" default:"sqlite"`
	Path   string `envconfig:"BILLMINDER_STORE_PATH" default:"billminder.db"`
}

func (s StoreConfig) validate() error {
	switch s.Driver {
	case StoreDriverSQLite, StoreDriverFile:
	default:
		return fmt.Errorf("unknown store driver %q", s.Driver)
	}
	if s.Path == "" {
		return fmt.Errorf("store path is required")
	}
	return nil
}

// SessionConfig governs the persisted session cache. The cache is a signed
// token holding only the session user id; the authoritative user record is
// always re-read on restore.
type SessionConfig struct {
	Secret     string `envconfig:"BILLMINDER_SESSION_SECRET" required:"true"`
	Issuer     string `envconfig:"BILLMINDER_SESSION_ISSUER" default:"billminder"`
	TTLMinutes int    `envconfig:"BILLMINDER_SESSION_TTL_MINUTES" default:"10080"`
	CachePath  string `envconfig:"BILLMINDER_SESSION_CACHE_PATH" default:"billminder.session"`
}

// TTL returns the session cache lifetime configured in minutes.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

// AdminConfig names the single account allowed to hold administrative
// privilege. Role alone is never sufficient; the email match is the binding
// fact.
type AdminConfig struct {
	Email string `envconfig:"BILLMINDER_ADMIN_EMAIL" required:"true"`
}

type LimitsConfig struct {
	FreeBillLimit int `envconfig:"BILLMINDER_FREE_BILL_LIMIT" default:"5"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BILLMINDER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BILLMINDER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BILLMINDER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BILLMINDER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BILLMINDER_ARGON_KEY_LEN" default:"32"`
}

// CredentialsConfig locates the credential store file. Credential material
// lives outside the application snapshot.
type CredentialsConfig struct {
	Path string `envconfig:"BILLMINDER_CREDENTIALS_PATH" default:"billminder.credentials"`
}

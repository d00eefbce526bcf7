package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"
	defaultAccessTTL          = "15m"
	defaultRefreshTTL         = "7d"
	defaultMaxActiveSessions  = 5
	defaultVerificationTTL    = 24 * time.Hour
	defaultSweeperInterval    = time.Hour
	defaultMailHost           = "smtp.gmail.com"
	defaultMailPort           = 587

	// MinSecretLength is the minimum accepted length of a JWT signing secret.
	MinSecretLength = 32
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	Migration *MigrationConfig `json:"migration" yaml:"migration"`

	SecretKey SecretKeyConfig `json:"secretKey" yaml:"secretKey"`

	Token *TokenConfig `json:"token" yaml:"token"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	// App holds the public base URLs used for redirects, links and CORS.
	App *AppConfig `json:"app" yaml:"app"`

	GithubOAuth *OAuthClientConfig `json:"githubOAuth" yaml:"githubOAuth"`
	GoogleOAuth *OAuthClientConfig `json:"googleOAuth" yaml:"googleOAuth"`

	Mail *MailConfig `json:"mail" yaml:"mail"`

	RateLimit *RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`

	// Sweeper configures the background job that reaps expired sessions.
	Sweeper *SweeperConfig `json:"sweeper" yaml:"sweeper"`
}

// SecretKeyConfig holds the two independent JWT signing secrets.
type SecretKeyConfig struct {
	Access  string `json:"access" yaml:"access"`
	Refresh string `json:"refresh" yaml:"refresh"`
}

// TokenConfig holds token lifetimes as strings such as "15m" or "7d".
type TokenConfig struct {
	AccessTTL  string `json:"accessTTL" yaml:"accessTTL"`
	RefreshTTL string `json:"refreshTTL" yaml:"refreshTTL"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	MaxActiveSessions int           `json:"maxActiveSessions" yaml:"maxActiveSessions"`
	VerificationTTL   time.Duration `json:"verificationTTL" yaml:"verificationTTL"`
}

type AppConfig struct {
	FrontendURL string `json:"frontendURL" yaml:"frontendURL"`
	APIURL      string `json:"apiURL" yaml:"apiURL"`
	Local       bool   `json:"local" yaml:"local"`
}

type OAuthClientConfig struct {
	ClientID     string `json:"clientId" yaml:"clientId"`
	ClientSecret string `json:"clientSecret" yaml:"clientSecret"`
}

// MailConfig defines the outbound SMTP account. With DevMode set, emails are logged instead of sent.
type MailConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	From     string `json:"from" yaml:"from"`
	DevMode  bool   `json:"devMode" yaml:"devMode"`
}

// RateLimitConfig selects the rate-limit backing store: "memory" or "redis".
type RateLimitConfig struct {
	Store string      `json:"store" yaml:"store"`
	Redis RedisConfig `json:"redis" yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

type MigrationConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

type SweeperConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Interval time.Duration `json:"interval" yaml:"interval"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	var configFile string
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate

			break
		}
	}

	if configFile == "" {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// SECRETKEY_ACCESS -> secretKey.access, aligned with the YAML spelling.
			return canonicalizeEnvKey(k, existingConfigMap), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	cfg.App.resolve(os.Getenv)

	if cfg.Postgres != nil {
		// POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, ...
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills every optional section left empty by the YAML file and environment.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.HTTP.MaxRequestBodySize) == "" {
		c.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if c.Migration == nil {
		c.Migration = &MigrationConfig{}
	}
	if c.Token == nil {
		c.Token = &TokenConfig{}
	}
	if c.Token.AccessTTL == "" {
		c.Token.AccessTTL = defaultAccessTTL
	}
	if c.Token.RefreshTTL == "" {
		c.Token.RefreshTTL = defaultRefreshTTL
	}
	if c.Auth == nil {
		c.Auth = &AuthConfig{}
	}
	if c.Auth.MaxActiveSessions <= 0 {
		c.Auth.MaxActiveSessions = defaultMaxActiveSessions
	}
	if c.Auth.VerificationTTL <= 0 {
		c.Auth.VerificationTTL = defaultVerificationTTL
	}
	if c.App == nil {
		c.App = &AppConfig{}
	}
	if c.GithubOAuth == nil {
		c.GithubOAuth = &OAuthClientConfig{}
	}
	if c.GoogleOAuth == nil {
		c.GoogleOAuth = &OAuthClientConfig{}
	}
	if c.Mail == nil {
		c.Mail = &MailConfig{}
	}
	if c.Mail.Host == "" {
		c.Mail.Host = defaultMailHost
	}
	if c.Mail.Port == 0 {
		c.Mail.Port = defaultMailPort
	}
	if c.Mail.From == "" {
		c.Mail.From = c.Mail.Username
	}
	if c.RateLimit == nil {
		c.RateLimit = &RateLimitConfig{}
	}
	if c.RateLimit.Store == "" {
		c.RateLimit.Store = "memory"
	}
	if c.Sweeper == nil {
		c.Sweeper = &SweeperConfig{}
	}
	if c.Sweeper.Interval <= 0 {
		c.Sweeper.Interval = defaultSweeperInterval
	}
}

// Validate rejects configurations the service cannot safely run with.
func (c *Config) Validate() error {
	if len(c.SecretKey.Access) < MinSecretLength {
		return errors.Errorf("secretKey.access must be at least %d characters", MinSecretLength)
	}
	if len(c.SecretKey.Refresh) < MinSecretLength {
		return errors.Errorf("secretKey.refresh must be at least %d characters", MinSecretLength)
	}
	if c.Token != nil {
		if _, err := ParseTTL(c.Token.AccessTTL); err != nil {
			return errors.Wrap(err, "token.accessTTL")
		}
		if _, err := ParseTTL(c.Token.RefreshTTL); err != nil {
			return errors.Wrap(err, "token.refreshTTL")
		}
	}
	if c.RateLimit != nil && c.RateLimit.Store != "memory" && c.RateLimit.Store != "redis" {
		return errors.Errorf("unknown rateLimit.store %q", c.RateLimit.Store)
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv reads POSTGRES_REPLICAS_{index}_{HOST,PORT,USERNAME,PASSWORD}
// until the first index without a host or port.
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			break
		}

		replicas = append(replicas, postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		})
	}

	return replicas
}

package common

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anecdotario/photo-services/constants"
	"github.com/op/go-logging"
	"github.com/spf13/viper"
)

type S3Credentials struct {
	Host      string
	KeyID     string
	SecretKey string
}

type Config struct {
	CacheControl    string
	ConfigName      string
	DefaultExpiry   time.Duration
	LogDir          string
	LogLevel        logging.Level
	MaxExpiry       time.Duration
	MaxImageSize    int64
	MinExpiry       time.Duration
	NsqLookupd      string
	NsqURL          string
	PhotoBucket     string
	RedisDefaultDB  int
	RedisPassword   string
	RedisURL        string
	RenditionPolicy []RenditionSpec
	RetentionCount  int
	S3Credentials   S3Credentials
	UseSSL          bool
}

var logLevels = map[string]logging.Level{
	"CRITICAL": logging.CRITICAL,
	"ERROR":    logging.ERROR,
	"WARNING":  logging.WARNING,
	"NOTICE":   logging.NOTICE,
	"INFO":     logging.INFO,
	"DEBUG":    logging.DEBUG,
}

// NewConfig returns a new config based on ENV vars PHOTO_CONFIG_DIR
// and PHOTO_SERVICES_CONFIG.
func NewConfig() *Config {
	config := loadConfig()
	config.expandPaths()
	config.sanityCheck()
	config.makeDirs()
	return config
}

func loadConfig() *Config {
	configDir, envName := getEnvVars()
	v := viper.New()
	v.AddConfigPath(configDir)
	v.SetConfigName(".env." + envName)
	v.SetConfigType("env")
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("MAX_IMAGE_SIZE", constants.DefaultMaxImageSize)
	v.SetDefault("PRESIGN_DEFAULT_EXPIRY", constants.DefaultPresignExpiry)
	v.SetDefault("PRESIGN_MAX_EXPIRY", constants.MaxPresignExpiry)
	v.SetDefault("PRESIGN_MIN_EXPIRY", constants.MinPresignExpiry)
	v.SetDefault("RETENTION_COUNT", constants.DefaultRetentionCount)
	v.SetDefault("S3_CACHE_CONTROL", "max-age=31536000")
	err := v.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("Fatal error config file: %s \n", err))
	}
	return &Config{
		CacheControl:    v.GetString("S3_CACHE_CONTROL"),
		ConfigName:      envName,
		DefaultExpiry:   v.GetDuration("PRESIGN_DEFAULT_EXPIRY"),
		LogDir:          v.GetString("LOG_DIR"),
		LogLevel:        logLevels[v.GetString("LOG_LEVEL")],
		MaxExpiry:       v.GetDuration("PRESIGN_MAX_EXPIRY"),
		MaxImageSize:    v.GetInt64("MAX_IMAGE_SIZE"),
		MinExpiry:       v.GetDuration("PRESIGN_MIN_EXPIRY"),
		NsqLookupd:      v.GetString("NSQ_LOOKUPD"),
		NsqURL:          v.GetString("NSQ_URL"),
		PhotoBucket:     v.GetString("PHOTO_BUCKET"),
		RedisDefaultDB:  v.GetInt("REDIS_DEFAULT_DB"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisURL:        v.GetString("REDIS_URL"),
		RenditionPolicy: loadRenditionPolicy(v),
		RetentionCount:  v.GetInt("RETENTION_COUNT"),
		S3Credentials: S3Credentials{
			Host:      v.GetString("S3_HOST"),
			KeyID:     v.GetString("S3_KEY"),
			SecretKey: v.GetString("S3_SECRET"),
		},
		UseSSL: envName != "dev" && envName != "test",
	}
}

func loadRenditionPolicy(v *viper.Viper) []RenditionSpec {
	value := v.GetString("PHOTO_RENDITIONS")
	if value == "" {
		return DefaultRenditionPolicy()
	}
	policy, err := ParseRenditionPolicy(value)
	if err != nil {
		panic(fmt.Errorf("Fatal error in PHOTO_RENDITIONS: %s \n", err))
	}
	return policy
}

func getEnvVars() (string, string) {
	configDir := getRequiredEnvVar("PHOTO_CONFIG_DIR")
	envName := getRequiredEnvVar("PHOTO_SERVICES_CONFIG")
	return configDir, envName
}

func getRequiredEnvVar(varName string) string {
	value := os.Getenv(varName)
	if value == "" {
		panic(fmt.Sprintf("Required env var %s is not set", varName))
	}
	return value
}

func (c *Config) expandPaths() {
	c.LogDir = expandPath(c.LogDir)
}

func expandPath(dirName string) string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return dirName
	}
	if len(dirName) > 1 && dirName[0:2] == "~/" {
		return filepath.Join(dir, dirName[2:])
	}
	return dirName
}

func (c *Config) sanityCheck() {
	// These are fatal because there's no reasonable fallback for
	// where to store photos or how to reach the store.
	if c.PhotoBucket == "" {
		panic("Config is missing PHOTO_BUCKET")
	}
	if c.S3Credentials.Host == "" {
		panic("Config is missing S3_HOST")
	}
	if c.RedisURL == "" {
		panic("Config is missing REDIS_URL")
	}
	if c.RetentionCount < 1 {
		panic(fmt.Sprintf("RETENTION_COUNT must be at least 1, got %d", c.RetentionCount))
	}
	if c.MinExpiry > c.MaxExpiry {
		panic("PRESIGN_MIN_EXPIRY exceeds PRESIGN_MAX_EXPIRY")
	}
}

func (c *Config) makeDirs() error {
	if c.LogDir == "" {
		return nil
	}
	err := os.MkdirAll(c.LogDir, 0755)
	if err != nil {
		panic(err)
	}
	return nil
}

package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/ermil/internal/flagx"
	"github.com/dmitrijs2005/ermil/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations use
// timex.Duration so both "30m" and integer nanoseconds are accepted.
// Fields left out of the file keep their previous values.
type JsonConfig struct {
	EndpointAddr    string         `json:"endpoint_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	SecretKey       string         `json:"secret_key"`
	IdentityTTL     timex.Duration `json:"identity_ttl"`
	SessionTTL      timex.Duration `json:"session_ttl"`
	PendingTTL      timex.Duration `json:"pending_ttl"`
	LogLevel        string         `json:"log_level"`
	SkillID         string         `json:"skill_id"`
	OAuthToken      string         `json:"oauth_token"`
	DialogsBaseURL  string         `json:"dialogs_base_url"`
	StaticMapsURL   string         `json:"static_maps_url"`
	ImageBackend    string         `json:"image_backend"`
	S3RootUser      string         `json:"s3_root_user"`
	S3RootPassword  string         `json:"s3_root_password"`
	S3Bucket        string         `json:"s3_bucket"`
	S3Region        string         `json:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint"`
	RedisAddr       string         `json:"redis_addr"`
	ProviderTimeout timex.Duration `json:"provider_timeout"`
	ProviderRetries *int           `json:"provider_retries"`
}

// parseJson loads the file named by -c/-config into config. Without the
// flag nothing happens; an unreadable or invalid file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddr, c.EndpointAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SkillID, c.SkillID)
	setString(&config.OAuthToken, c.OAuthToken)
	setString(&config.DialogsBaseURL, c.DialogsBaseURL)
	setString(&config.StaticMapsURL, c.StaticMapsURL)
	setString(&config.ImageBackend, c.ImageBackend)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.RedisAddr, c.RedisAddr)

	if c.IdentityTTL.Duration != 0 {
		config.IdentityTTL = c.IdentityTTL.Duration
	}
	if c.SessionTTL.Duration != 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.PendingTTL.Duration != 0 {
		config.PendingTTL = c.PendingTTL.Duration
	}
	if c.ProviderTimeout.Duration != 0 {
		config.ProviderTimeout = c.ProviderTimeout.Duration
	}
	if c.ProviderRetries != nil {
		config.ProviderRetries = *c.ProviderRetries
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/ermil/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv overlays ERMIL_* environment variables onto config.
//
// A dotenv file given with -env is loaded first and must exist; otherwise
// a ./.env file is loaded when present. Variables already set in the
// process environment win over the file. Durations use Go syntax ("90s").
// Malformed numbers or durations panic, like the other config sources.
func parseEnv(config *Config) {
	if path := flagx.EnvFilePath(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else {
		_ = godotenv.Load()
	}

	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	str("ERMIL_ADDR", &config.EndpointAddr)
	str("ERMIL_DATABASE_DSN", &config.DatabaseDSN)
	str("ERMIL_SECRET_KEY", &config.SecretKey)
	dur("ERMIL_IDENTITY_TTL", &config.IdentityTTL)
	dur("ERMIL_SESSION_TTL", &config.SessionTTL)
	dur("ERMIL_PENDING_TTL", &config.PendingTTL)
	str("ERMIL_LOG_LEVEL", &config.LogLevel)
	str("ERMIL_SKILL_ID", &config.SkillID)
	str("ERMIL_OAUTH_TOKEN", &config.OAuthToken)
	str("ERMIL_DIALOGS_BASE_URL", &config.DialogsBaseURL)
	str("ERMIL_STATIC_MAPS_URL", &config.StaticMapsURL)
	str("ERMIL_IMAGE_BACKEND", &config.ImageBackend)
	str("ERMIL_S3_ROOT_USER", &config.S3RootUser)
	str("ERMIL_S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("ERMIL_S3_BUCKET", &config.S3Bucket)
	str("ERMIL_S3_REGION", &config.S3Region)
	str("ERMIL_S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("ERMIL_REDIS_ADDR", &config.RedisAddr)
	dur("ERMIL_PROVIDER_TIMEOUT", &config.ProviderTimeout)

	if v, ok := os.LookupEnv("ERMIL_PROVIDER_RETRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.ProviderRetries = n
	}
}

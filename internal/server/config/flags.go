package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/ermil/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   webhook bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   secret key
//	-t int      identity validity, minutes
//	-l int      session idle TTL, minutes
//	-w int      pending marker TTL, minutes
//	-v string   log level
//	-k string   Yandex Dialogs skill id
//	-o string   Yandex Dialogs OAuth token
//	-y string   Yandex Dialogs API base URL
//	-m string   static maps URL
//	-i string   image backend: dialogs | s3
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-r string   Redis address for sessions (empty = in memory)
//	-x int      provider timeout, seconds
//	-n int      provider retries
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-t", "-l", "-w", "-v", "-k", "-o", "-y", "-m",
		"-i", "-u", "-p", "-b", "-g", "-e", "-r", "-x", "-n",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	identityTTL := fs.Int("t", int(config.IdentityTTL.Minutes()), "identity validity (in minutes)")
	sessionTTL := fs.Int("l", int(config.SessionTTL.Minutes()), "session idle ttl (in minutes)")
	pendingTTL := fs.Int("w", int(config.PendingTTL.Minutes()), "pending marker ttl (in minutes)")

	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	fs.StringVar(&config.SkillID, "k", config.SkillID, "dialogs skill id")
	fs.StringVar(&config.OAuthToken, "o", config.OAuthToken, "dialogs OAuth token")
	fs.StringVar(&config.DialogsBaseURL, "y", config.DialogsBaseURL, "dialogs API base URL")
	fs.StringVar(&config.StaticMapsURL, "m", config.StaticMapsURL, "static maps URL")
	fs.StringVar(&config.ImageBackend, "i", config.ImageBackend, "image backend (dialogs|s3)")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")

	providerTimeout := fs.Int("x", int(config.ProviderTimeout.Seconds()), "provider timeout (in seconds)")
	fs.IntVar(&config.ProviderRetries, "n", config.ProviderRetries, "provider retries")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.IdentityTTL = time.Duration(*identityTTL) * time.Minute
	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	config.PendingTTL = time.Duration(*pendingTTL) * time.Minute
	config.ProviderTimeout = time.Duration(*providerTimeout) * time.Second
}

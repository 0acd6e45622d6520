// Package console is a line-oriented client for a running Ermil webhook.
// It plays the part of the Dialogs platform: every line typed becomes one
// turn of a single conversation.
package console

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/ermil/internal/flagx"
)

type Config struct {
	WebhookURL string
	Timeout    time.Duration
}

func (c *Config) LoadDefaults() {
	c.WebhookURL = "http://127.0.0.1:8080/webhook"
	c.Timeout = 15 * time.Second
}

// LoadConfig applies defaults, then flags:
//
//	-u string   webhook URL
//	-t int      request timeout, seconds
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg, os.Args[1:])
	return cfg
}

func parseFlags(c *Config, argv []string) {
	args := flagx.FilterArgs(argv, []string{"-u", "-t"})

	fs := flag.NewFlagSet("console", flag.ContinueOnError)
	fs.StringVar(&c.WebhookURL, "u", c.WebhookURL, "webhook URL")
	timeout := fs.Int("t", int(c.Timeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	c.Timeout = time.Duration(*timeout) * time.Second
}

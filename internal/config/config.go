package config

import (
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}

	cfg := Config{
		DBName:          getEnv("DB_NAME"),
		Port:            getEnv("PORT"),
		DefaultLeagueID: Optional("DEFAULT_LEAGUE_ID", "default"),
		Slack: SlackConfig{
			Token:         os.Getenv("SLACK_BOT_TOKEN"),
			ChannelID:     os.Getenv("SLACK_CHANNEL_ID"),
			SigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),
		},
		Turso: TursoConfig{
			PrimaryURL: os.Getenv("TURSO_PRIMARY_URL"),
			AuthToken:  os.Getenv("TURSO_AUTH_TOKEN"),
		},
		Inngest: InngestConfig{
			AppID:      Optional("INNGEST_APP_ID", "racket-ladder"),
			SigningKey: os.Getenv("INNGEST_SIGNING_KEY"),
			EventKey:   os.Getenv("INNGEST_EVENT_KEY"),
		},
		Ladder: LadderConfig{
			PendingTTL:           duration("PENDING_TTL", 24*time.Hour),
			SweepInterval:        duration("EXPIRY_SWEEP_INTERVAL", time.Minute),
			FriendlyCountsRecord: boolean("FRIENDLY_COUNTS_RECORD", false),
		},
		ProjectID: os.Getenv("GCP_PROJECT"),
	}
	return cfg
}

// Optional returns the value of key, or def when it is unset or empty.
func Optional(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	if raw == "0" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("Error: %s must be a duration like 24h or 30m, got %q", key, raw)
	}
	return d
}

func boolean(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Fatalf("Error: %s must be true or false, got %q", key, raw)
	}
	return b
}

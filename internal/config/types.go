package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName          string
	Port            string
	DefaultLeagueID string
	Slack           SlackConfig
	Turso           TursoConfig
	Inngest         InngestConfig
	Ladder          LadderConfig
	ProjectID       string
}
type SlackConfig struct {
	Token         string
	ChannelID     string
	SigningSecret string
}
type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
type InngestConfig struct {
	SigningKey string
	EventKey   string
	AppID      string
}

// LadderConfig holds the rules of the rating engine.
type LadderConfig struct {
	PendingTTL           time.Duration
	SweepInterval        time.Duration
	FriendlyCountsRecord bool
}

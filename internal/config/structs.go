package config

import (
	"github.com/ecotrack/ecotrack/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
	SMTP      SMTP
	RateLimit RateLimit
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain        string // domain name for the webserver
	Port          int    // listening port for the webserver
	ShutDownTime  int    // wait time for shutdown in seconds
	URL           string // allowed CORS origin for the SPA client
	ClientBaseURL string // base url of the SPA, used to build password reset links
}

// Auth holds token signing settings.
//
// AccessSecret and RefreshSecret must differ so a refresh token can never be
// replayed as an access token and vice versa.
type Auth struct {
	AccessSecret     string
	RefreshSecret    string
	AccessTTLMinutes int // access token validity in minutes
	RefreshTTLDays   int // refresh token validity in days
}

// SMTP holds settings for the password reset mail transport.
type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// RateLimit holds fixed-window limits for the sensitive auth endpoints.
type RateLimit struct {
	LoginMax           int // max login attempts per window
	LoginWindowMinutes int
	ResetMax           int // max password reset requests per window
	ResetWindowMinutes int
	Shared             SharedStore
}

// SharedStore enables a database backed rate limit window store so multiple
// processes enforce one limit. Disabled, each process counts on its own.
type SharedStore struct {
	Enabled bool
	Table   string
}

package api

import (
	"github.com/sirupsen/logrus"

	"github.com/pixel-beads/api/colormatch"
	"github.com/pixel-beads/api/datastore"
	"github.com/pixel-beads/api/patterns"
)

// DefaultMaxUploadBytes caps image uploads when no limit is configured.
const DefaultMaxUploadBytes = 10 << 20

type Config struct {
	HTTPPort             string
	DatabaseType         string
	DatabaseUser         string
	DatabasePassword     string
	DatabaseHost         string
	DatabaseName         string
	SSLMode              string
	SQLitePath           string
	ColorsPath           string
	ColorsReloadInterval int // seconds, 0 disables polling
	JwtSecret            string
	JwtAdminDuration     int // seconds
	AllowedOrigins       []string
	MaxUploadBytes       int64
	LogLevel             string
	LogFormat            string
	DevMode              bool
}

// TableReloader reloads the colour reference table on demand.
type TableReloader interface {
	ReloadNow() (int, error)
}

// Pinger reports database reachability for the health check.
type Pinger interface {
	Ping() error
}

type Application struct {
	Config   Config
	Logger   *logrus.Logger
	Patterns *patterns.Service
	TagRepo  datastore.TagRepository
	Colors   *colormatch.Matcher
	Reloader TableReloader
	DB       Pinger
}

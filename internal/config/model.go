// internal/config/model.go
//
// Typed configuration model for Formdesk.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from four layers:
//
//   • compiled-in defaults (Defaults)        – lowest precedence,
//   • optional `conf/.env`                   – dotenv values,
//   • optional `conf/global.yaml`            – primary static file,
//   • `FORMDESK_`-prefixed environment       – highest precedence.
//
// Any value whose string begins with `vault:` is resolved through the Vault
// client before unmarshalling, so the model never stores Vault URIs, only
// plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • Durations accept Go syntax ("100ms", "15s").
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"    validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"   validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout"  validate:"gte=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"   validate:"gte=0"`
	MaxBodyBytes int64         `koanf:"max_body_bytes" validate:"gt=0"`
}

//
// Forms section
//

// Forms controls submission handling.
//
// ProcessingDelay is the simulated latency of the post-validation side
// effect.  DefinitionsDir holds optional YAML schemas loaded next to the
// built-in ones.
type Forms struct {
	ProcessingDelay time.Duration `koanf:"processing_delay" validate:"gte=0"`
	DefinitionsDir  string        `koanf:"definitions_dir"`
	CSRF            bool          `koanf:"csrf"`
	TokenMaxAge     time.Duration `koanf:"token_max_age"    validate:"gte=0"`
}

//
// Security section
//

// Security holds secrets.  CSRFKey is base64url; prefer a `vault:` reference
// over a literal.  Empty means an ephemeral per-process key.
type Security struct {
	CSRFKey string `koanf:"csrf_key"`
}

//
// Logging section
//

// Logging configures the zap file logger.
type Logging struct {
	Dir   string `koanf:"dir"   validate:"required"`
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	Tee   bool   `koanf:"tee"`
}

//
// GeoIP section
//

// GeoIP points at an optional GeoLite2-City database.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // FORMDESK_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Forms    Forms    `koanf:"forms"`
	Security Security `koanf:"security"`
	Logging  Logging  `koanf:"logging"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Paths    Paths    `koanf:"-"`
}

// Defaults returns the compiled-in baseline.
func Defaults() Config {
	return Config{
		HTTP: HTTP{
			ListenAddr:   ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		Forms: Forms{
			ProcessingDelay: 100 * time.Millisecond,
			DefinitionsDir:  "conf/forms",
			CSRF:            true,
			TokenMaxAge:     2 * time.Hour,
		},
		Logging: Logging{
			Dir:   "logs",
			Level: "info",
		},
	}
}

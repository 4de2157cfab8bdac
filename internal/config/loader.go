// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from four layers (highest
precedence last):

  1. Compiled-in defaults (see Defaults in model.go).
  2. Optional `<root>/conf/.env`.
  3. Optional `<root>/conf/global.yaml`.
  4. Environment variables prefixed `FORMDESK_`, where `__` maps to “.”
     (e.g., `FORMDESK_HTTP__LISTEN_ADDR → http.listen_addr`).

Values written as `vault:<mount>/<path>#<key>` are then swapped for the
secret fetched through a SecretResolver.  After that the tree is
unmarshalled onto the defaults, relative paths are anchored at the root,
the result is validated, and it is cached in an `atomic.Pointer` for
lock-free reads.  `Reload()` repeats the last Load and swaps the pointer.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read, env overlay.
  • ERROR spans: YAML parse, env overlay, secret lookup, unmarshal, and
    validation failures.
  • INFO  span: final “config loaded” with key highlights.
  • Logs use the global sugared logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`; this
    lets `go run ./cmd/web` work from any sub-directory.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	envPrefix   = "FORMDESK_"
	vaultPrefix = "vault:"
	secretTTL   = 5 * time.Minute
)

// SecretResolver fetches one key of a KV secret.  *vault.Client and
// *vault.Lazy satisfy it.
type SecretResolver interface {
	GetKV(ctx context.Context, path, key string, ttl time.Duration) (string, error)
}

// ErrNoResolver is returned when the tree holds a vault: reference but no
// SecretResolver was supplied.
var ErrNoResolver = errors.New("config: vault reference without a secret resolver")

var (
	current atomic.Pointer[Config]

	lastMu   sync.Mutex
	lastRoot string
	lastRes  SecretResolver
)

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves FORMDESK_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to the executable heuristic for
// the production layout, then to the working directory.
func rootDir() string {
	if r := os.Getenv(envPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load discovers the root and loads from it.  res may be nil when no value
// uses a vault: reference.
func Load(ctx context.Context, res SecretResolver) (*Config, error) {
	return LoadFrom(ctx, rootDir(), res)
}

// LoadFrom reads .env, YAML, and env overrides under root, resolves
// secrets, validates, and caches the Config.
func LoadFrom(ctx context.Context, root string, res SecretResolver) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, never overrides the real environment)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, fmt.Errorf("config: %s: %w", yamlPath, err)
		}
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	// Env overrides: FORMDESK_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, fmt.Errorf("config: env: %w", err)
	}

	if err := resolveSecrets(ctx, k, res); err != nil {
		zap.S().Errorw("config secret lookup failed", "err", err)
		return nil, err
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.Paths.Root = root
	cfg.Logging.Dir = anchor(root, cfg.Logging.Dir)
	cfg.Forms.DefinitionsDir = anchor(root, cfg.Forms.DefinitionsDir)
	cfg.GeoIP.DBPath = anchor(root, cfg.GeoIP.DBPath)

	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, fmt.Errorf("config: %w", err)
	}

	current.Store(&cfg)
	lastMu.Lock()
	lastRoot, lastRes = root, res
	lastMu.Unlock()

	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"processing_delay", cfg.Forms.ProcessingDelay,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// Get returns the last loaded Config, or nil before the first Load.
func Get() *Config { return current.Load() }

// Reload repeats the last Load.
func Reload(ctx context.Context) error {
	lastMu.Lock()
	root, res := lastRoot, lastRes
	lastMu.Unlock()
	if root == "" {
		_, err := Load(ctx, res)
		return err
	}
	_, err := LoadFrom(ctx, root, res)
	return err
}

// envKey maps FORMDESK_HTTP__LISTEN_ADDR to http.listen_addr.
func envKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, envPrefix), "__", "."))
}

// resolveSecrets swaps every vault:<path>#<key> string for its secret.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, res SecretResolver) error {
	for key, val := range k.All() {
		s, ok := val.(string)
		if !ok || !strings.HasPrefix(s, vaultPrefix) {
			continue
		}
		if res == nil {
			return fmt.Errorf("%w: %s", ErrNoResolver, key)
		}
		path, field, err := parseRef(s)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		secret, err := res.GetKV(ctx, path, field, secretTTL)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		if err := k.Set(key, secret); err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
	}
	return nil
}

// parseRef splits vault:<path>#<key>.
func parseRef(ref string) (path, key string, err error) {
	path, key, ok := strings.Cut(strings.TrimPrefix(ref, vaultPrefix), "#")
	if !ok || path == "" || key == "" {
		return "", "", fmt.Errorf("malformed vault reference %q, want vault:<path>#<key>", ref)
	}
	return path, key, nil
}

// anchor makes p absolute relative to root.  Empty stays empty.
func anchor(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

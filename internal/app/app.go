// Package app wires together all adapters and domain logic.
// It provides lifecycle management for the snomap daemon: create, start, stop.
package app

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/carrick/snomap/internal/adapters/bboltcache"
	fsw "github.com/carrick/snomap/internal/adapters/fsnotify"
	"github.com/carrick/snomap/internal/adapters/socket"
	"github.com/carrick/snomap/internal/domain/ontology"
	"github.com/carrick/snomap/internal/ports"
)

// App is the top-level container wiring all components together.
type App struct {
	DefinitionsRoot string
	Paths           *Paths

	Cache   *bboltcache.Cache
	Watcher *fsw.Watcher
	Engine  *ontology.Engine
	Server  *socket.Server

	log     zerolog.Logger
	logFile *os.File
}

// Config holds initialization parameters for the App.
type Config struct {
	DefinitionsRoot string
	DBPath          string // path to bbolt cache file (default: .snomap/snomap.db)
	LogPath         string // daemon log (default: .snomap/log/daemon.log)
	NoCache         bool   // parse release files directly, skip the bbolt cache
}

// New creates an App with all release tables loaded and dependencies wired.
// Does not start services.
func New(cfg Config) (*App, error) {
	if cfg.DefinitionsRoot == "" {
		return nil, fmt.Errorf("definitions root required")
	}

	paths := NewPaths(cfg.DefinitionsRoot)
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("create state dirs: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = paths.DB
	}
	if cfg.LogPath == "" {
		cfg.LogPath = paths.DaemonLog
	}

	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open daemon log: %w", err)
	}
	log := zerolog.New(logFile).With().Timestamp().Logger()

	var cache *bboltcache.Cache
	if !cfg.NoCache {
		cache, err = bboltcache.Open(cfg.DBPath)
		if err != nil {
			logFile.Close()
			return nil, fmt.Errorf("open cache: %w", err)
		}
	}

	engine, err := loadEngine(cfg.DefinitionsRoot, cache, log)
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		logFile.Close()
		return nil, err
	}

	watcher, err := fsw.NewWatcher()
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		logFile.Close()
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	a := &App{
		DefinitionsRoot: cfg.DefinitionsRoot,
		Paths:           paths,
		Cache:           cache,
		Watcher:         watcher,
		Engine:          engine,
		log:             log,
		logFile:         logFile,
	}
	a.Server = socket.NewServer(engine, socket.SocketPath(cfg.DefinitionsRoot))
	return a, nil
}

// LoadEngine builds a query engine directly, without a daemon. Commands that
// cannot reach a running daemon fall back to this.
func LoadEngine(definitionsRoot string, cache ports.TableCache) (*ontology.Engine, error) {
	return loadEngine(definitionsRoot, cache, zerolog.Nop())
}

func loadEngine(definitionsRoot string, cache ports.TableCache, log zerolog.Logger) (*ontology.Engine, error) {
	releases, err := ontology.ListReleases(definitionsRoot)
	if err != nil {
		return nil, fmt.Errorf("list releases: %w", err)
	}
	if len(releases) == 0 {
		return nil, fmt.Errorf("no releases found under %s", definitionsRoot)
	}

	tables := make([]*ports.ReleaseTables, 0, len(releases))
	for _, release := range releases {
		t, err := loadReleaseTables(definitionsRoot, release, cache, log)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return ontology.NewEngine(ontology.NewStore(tables...)), nil
}

// loadReleaseTables returns the cached tables for a release when the cache
// fingerprint still matches the files on disk, otherwise parses the release
// and refreshes the cache.
func loadReleaseTables(definitionsRoot, release string, cache ports.TableCache, log zerolog.Logger) (*ports.ReleaseTables, error) {
	fingerprint, err := ontology.Fingerprint(definitionsRoot, release)
	if err != nil {
		return nil, fmt.Errorf("fingerprint release %s: %w", release, err)
	}

	if cache != nil {
		cached, err := cache.Load(release, fingerprint)
		if err != nil {
			return nil, fmt.Errorf("load cached release %s: %w", release, err)
		}
		if cached != nil {
			log.Info().Str("release", release).Msg("release loaded from cache")
			return cached, nil
		}
	}

	start := time.Now()
	tables, err := ontology.LoadRelease(definitionsRoot, release)
	if err != nil {
		return nil, fmt.Errorf("load release %s: %w", release, err)
	}
	log.Info().
		Str("release", release).
		Int("concepts", len(tables.Concepts)).
		Int("edges", len(tables.Edges)).
		Dur("elapsed", time.Since(start)).
		Msg("release parsed")

	if cache != nil {
		if err := cache.Save(release, fingerprint, tables); err != nil {
			log.Warn().Err(err).Str("release", release).Msg("cache save failed")
		}
	}
	return tables, nil
}

// Start begins the daemon: socket server plus the release-file watcher that
// flags loaded tables as stale.
func (a *App) Start() error {
	if err := a.Server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	a.log.Info().
		Str("socket", a.Server.Addr()).
		Strs("releases", a.Engine.Store().Releases()).
		Int("concepts", a.Engine.Store().ConceptCount()).
		Int("edges", a.Engine.Store().EdgeCount()).
		Msg("daemon started")

	// Watcher failure is non-fatal: queries still work, staleness just goes
	// unreported.
	if err := a.Watcher.Watch(a.DefinitionsRoot, a.onFileChanged); err != nil {
		a.log.Warn().Err(err).Msg("release watcher unavailable")
	}
	return nil
}

// Stop gracefully shuts down all services.
func (a *App) Stop() error {
	a.Watcher.Stop()
	a.Server.Stop()
	if a.Cache != nil {
		a.Cache.Close()
	}
	a.log.Info().Msg("daemon stopped")
	a.logFile.Close()
	return nil
}

func (a *App) onFileChanged(path string) {
	a.log.Info().Str("path", path).Msg("release files changed, tables stale")
	a.Server.MarkStale()
}

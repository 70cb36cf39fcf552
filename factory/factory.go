// Package factory assembles a ready-to-use KadeDB engine: the four
// storage engines, a paged-file buffer pool, and a KadeQL executor,
// wired together from a single Config.
package factory

import (
	"go.uber.org/zap"

	"github.com/kadedb/kadedb"
	"github.com/kadedb/kadedb/bridge"
	"github.com/kadedb/kadedb/internal/document"
	"github.com/kadedb/kadedb/internal/graph"
	"github.com/kadedb/kadedb/internal/kadeql"
	"github.com/kadedb/kadedb/internal/pagefile"
	"github.com/kadedb/kadedb/internal/relational"
	"github.com/kadedb/kadedb/internal/timeseries"
)

// Engine bundles the four storage engines behind a single KadeQL
// entry point, plus an optional paged file with its buffer pool (none
// of the four engines stores its tables there) and the interop bridge
// for external sources/sinks.
//
// Usage:
//
//	cfg := kadedb.DefaultConfig()
//	eng, err := factory.NewEngine(cfg)
//	if err != nil {
//	    // handle error
//	}
//	defer eng.Close()
//
//	rs, err := eng.Query("SELECT * FROM users WHERE age > 25")
type Engine struct {
	cfg        *kadedb.Config
	log        *zap.Logger
	Relational *relational.Engine
	Document   *document.Engine
	Graph      *graph.Storage
	TimeSeries *timeseries.Engine
	Executor   *kadeql.Executor
	Pages      *pagefile.PageManager
	files      *pagefile.FileManager
	Bridge     *bridge.Bridge
}

// NewEngine validates cfg and assembles an Engine from it: a logger
// per cfg.Logging, the four storage engines, a KadeQL executor bound
// to the relational engine, and (if cfg.PageFile.Path is set) a
// paged file with its buffer pool opened or created at that path.
func NewEngine(cfg *kadedb.Config) (*Engine, error) {
	if cfg == nil {
		cfg = kadedb.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log, err := kadedb.NewLogger(cfg.Logging)
	if err != nil {
		return nil, kadedb.NewEngineError(kadedb.Internal, "build logger: %v", err)
	}

	rel := relational.NewEngine()
	eng := &Engine{
		cfg:        cfg,
		log:        log,
		Relational: rel,
		Document:   document.NewEngine(),
		Graph:      graph.NewStorage(),
		TimeSeries: timeseries.NewEngine(),
		Executor:   kadeql.NewExecutor(rel),
		Bridge:     bridge.New(log.Sugar()),
	}

	if cfg.PageFile.Path != "" {
		sugar := log.Sugar()
		fm, err := pagefile.Open(cfg.PageFile.Path, sugar)
		if err != nil {
			fm, err = pagefile.Create(cfg.PageFile.Path, cfg.PageFile.PageSize, sugar)
			if err != nil {
				return nil, err
			}
		}
		eng.files = fm
		eng.Pages = pagefile.NewPageManager(fm, cfg.PageFile.CacheCapacity, sugar)
	}

	log.Info("engine initialized",
		zap.Uint32("pageSize", cfg.PageFile.PageSize),
		zap.Int("cacheCapacity", cfg.PageFile.CacheCapacity),
	)
	return eng, nil
}

// Query parses src as KadeQL and executes it against the relational
// engine.
func (e *Engine) Query(src string) (*kadedb.ResultSet, error) {
	stmt, err := kadeql.Parse(src)
	if err != nil {
		return nil, err
	}
	return e.Executor.Execute(stmt)
}

// Close flushes and closes the paged file, if one is open.
func (e *Engine) Close() error {
	if e.Pages == nil {
		return nil
	}
	if err := e.Pages.FlushAll(); err != nil {
		return err
	}
	return e.files.Close()
}

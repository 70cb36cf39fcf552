// Package bridge implements KadeDB's interop surface: bulk-loading an
// external Postgres table into a relational table, exporting a
// relational table to DuckDB for analytics, and snapshotting/restoring
// a relational table's binary encoding to and from S3.
//
// None of this is wired into query execution; callers reach it
// explicitly through a Bridge value, the way the source engine treats
// its CDC/export paths as an optional side-channel rather than part of
// the hot query path.
package bridge

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kadedb/kadedb"
)

// breakerThreshold/breakerWindow/breakerOpenDuration tune the per-kind
// circuit breakers every Bridge constructs: five failures inside a
// minute trips a one-minute cooldown.
const (
	breakerThreshold    = 5
	breakerWindow       = time.Minute
	breakerOpenDuration = time.Minute
)

var errCircuitOpen = fmt.Errorf("bridge: circuit open, too many recent failures")

// Bridge groups the three interop integrations behind one value so
// callers construct it once per engine instance. Each integration has
// its own circuit breaker, since a run of Postgres failures should not
// suppress a working S3 path.
type Bridge struct {
	log *zap.SugaredLogger

	pgBreaker     *circuitBreaker
	duckDBBreaker *circuitBreaker
	s3Breaker     *circuitBreaker
}

// New returns a Bridge that logs through log (nil for a no-op logger).
func New(log *zap.SugaredLogger) *Bridge {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Bridge{
		log:           log,
		pgBreaker:     newCircuitBreaker(breakerThreshold, breakerWindow, breakerOpenDuration),
		duckDBBreaker: newCircuitBreaker(breakerThreshold, breakerWindow, breakerOpenDuration),
		s3Breaker:     newCircuitBreaker(breakerThreshold, breakerWindow, breakerOpenDuration),
	}
}

func wrapCircuitOpen(err error) error {
	if err == errCircuitOpen {
		return kadedb.NewEngineError(kadedb.FailedPrecondition, "%v", err)
	}
	return err
}

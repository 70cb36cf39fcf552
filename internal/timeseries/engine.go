// Package timeseries implements the in-memory time-series storage
// engine: append-only, bucketed-by-timestamp series with range
// queries, bucketed aggregation, and age/row-count retention.
package timeseries

import (
	"sort"
	"sync"

	"github.com/kadedb/kadedb"
)

const (
	secondsPerHour = int64(3600)
	secondsPerDay  = int64(86400)
)

type series struct {
	schema      *kadedb.TimeSeriesSchema
	tableSchema *kadedb.TableSchema
	buckets     map[int64][]*kadedb.Row
}

// floorDiv divides a by b rounding toward negative infinity, unlike
// Go's native / which truncates toward zero. Bucketing a timestamp
// that precedes the epoch must floor, not truncate, or a ts just
// before a bucket boundary gets assigned to the bucket after it.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func bucketStart(ts int64, partition kadedb.TimePartition) int64 {
	switch partition {
	case kadedb.PartitionDaily:
		return floorDiv(ts, secondsPerDay) * secondsPerDay
	default:
		return floorDiv(ts, secondsPerHour) * secondsPerHour
	}
}

// Engine is the in-memory time-series storage engine.
type Engine struct {
	mu     sync.Mutex
	series map[string]*series
}

// NewEngine returns an empty Engine.
func NewEngine() *Engine {
	return &Engine{series: make(map[string]*series)}
}

// CreateSeries registers a new series under name.
func (e *Engine) CreateSeries(name string, schema *kadedb.TimeSeriesSchema) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.series[name]; exists {
		return kadedb.NewEngineError(kadedb.AlreadyExists, "series %q already exists", name).
			WithEntity(kadedb.EntityRef{Store: "timeseries", Name: name}).WithOperation("createSeries")
	}
	e.series[name] = &series{
		schema:      schema,
		tableSchema: schema.ToTableSchema(),
		buckets:     make(map[int64][]*kadedb.Row),
	}
	return nil
}

// DropSeries removes a series and all of its samples.
func (e *Engine) DropSeries(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.series[name]; !ok {
		return seriesNotFound(name, "dropSeries")
	}
	delete(e.series, name)
	return nil
}

// ListSeries returns series names in sorted order.
func (e *Engine) ListSeries() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.series))
	for name := range e.series {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Append validates row against the series' derived table schema,
// buckets it by its timestamp cell, and applies retention afterward.
func (e *Engine) Append(name string, row *kadedb.Row) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.series[name]
	if !ok {
		return seriesNotFound(name, "append")
	}
	if msg := kadedb.ValidateRow(s.tableSchema, row); msg != "" {
		return kadedb.NewEngineError(kadedb.InvalidArgument, "%s", msg).
			WithEntity(kadedb.EntityRef{Store: "timeseries", Name: name}).WithOperation("append")
	}
	tsIdx := s.tableSchema.ColumnIndex(s.schema.TimestampColumn)
	ts, err := row.Cells[tsIdx].AsInt()
	if err != nil {
		return kadedb.NewEngineError(kadedb.InvalidArgument, "timestamp column is not an integer").
			WithEntity(kadedb.EntityRef{Store: "timeseries", Name: name}).WithOperation("append")
	}
	b := bucketStart(ts, s.schema.Partition)
	s.buckets[b] = append(s.buckets[b], row.Clone())
	e.applyRetentionLocked(s, ts)
	return nil
}

// applyRetentionLocked drops data that falls outside the series'
// RetentionPolicy, evaluated relative to now (the timestamp of the
// most recently appended sample, matching an append-driven retention
// sweep rather than a wall-clock one).
//
// TTL eviction runs in two phases: first, whole buckets that have
// aged out entirely are dropped outright; then, within buckets that
// survive that coarse test, individual rows older than the cutoff are
// trimmed one by one, since a bucket spans an hour or a day and can
// contain a mix of expired and live rows.
//
// The whole-bucket test is conservative for Daily partitions: a
// bucket is kept whenever its start plus a full day still exceeds the
// cutoff, so a bucket can outlive MaxAge by up to 24h before the
// per-row phase catches the rest.
func (e *Engine) applyRetentionLocked(s *series, now int64) {
	if s.schema.Retention.MaxAge > 0 {
		cutoff := now - s.schema.Retention.MaxAge
		tsIdx := s.tableSchema.ColumnIndex(s.schema.TimestampColumn)
		for b, rows := range s.buckets {
			if b+secondsPerDay < cutoff {
				delete(s.buckets, b)
				continue
			}
			var kept []*kadedb.Row
			for _, r := range rows {
				ts, _ := r.Cells[tsIdx].AsInt()
				if ts >= cutoff {
					kept = append(kept, r)
				}
			}
			if len(kept) == 0 {
				delete(s.buckets, b)
			} else if len(kept) != len(rows) {
				s.buckets[b] = kept
			}
		}
	}
	if s.schema.Retention.MaxRows > 0 && s.schema.Retention.DropOldest {
		total := 0
		for _, rows := range s.buckets {
			total += len(rows)
		}
		if total <= s.schema.Retention.MaxRows {
			return
		}
		keys := make([]int64, 0, len(s.buckets))
		for b := range s.buckets {
			keys = append(keys, b)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		for _, b := range keys {
			if total <= s.schema.Retention.MaxRows {
				break
			}
			n := len(s.buckets[b])
			if total-n >= s.schema.Retention.MaxRows {
				total -= n
				delete(s.buckets, b)
				continue
			}
			keep := n - (total - s.schema.Retention.MaxRows)
			s.buckets[b] = s.buckets[b][n-keep:]
			total = s.schema.Retention.MaxRows
		}
	}
}

// resolveProjection validates projection column names against schema
// and returns their indices, or nil for "all columns" when projection
// is empty, mirroring relational.Engine.Select's column handling.
func resolveProjection(schema *kadedb.TableSchema, projection []string, name, op string) ([]int, error) {
	if len(projection) == 0 {
		return nil, nil
	}
	idxs := make([]int, len(projection))
	for i, c := range projection {
		idx := schema.ColumnIndex(c)
		if idx < 0 {
			return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "unknown column %q", c).
				WithEntity(kadedb.EntityRef{Store: "timeseries", Name: name}).WithOperation(op)
		}
		idxs[i] = idx
	}
	return idxs, nil
}

func projectRow(r *kadedb.Row, idxs []int) *kadedb.Row {
	if idxs == nil {
		return r
	}
	cells := make([]kadedb.Value, len(idxs))
	for i, idx := range idxs {
		cells[i] = r.Cells[idx].Clone()
	}
	return &kadedb.Row{Cells: cells}
}

// RangeQuery returns every sample with a timestamp in the half-open
// interval [from, to) that also matches where (nil matches
// everything), sorted ascending by timestamp and shaped by projection
// (nil/empty returns every column).
func (e *Engine) RangeQuery(name string, projection []string, from, to int64, where *kadedb.Predicate) ([]*kadedb.Row, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.series[name]
	if !ok {
		return nil, seriesNotFound(name, "rangeQuery")
	}
	idxs, err := resolveProjection(s.tableSchema, projection, name, "rangeQuery")
	if err != nil {
		return nil, err
	}

	tsIdx := s.tableSchema.ColumnIndex(s.schema.TimestampColumn)
	startBucket := bucketStart(from, s.schema.Partition)
	endBucket := bucketStart(to-1, s.schema.Partition)

	var matched []*kadedb.Row
	for b, rows := range s.buckets {
		if b < startBucket || b > endBucket {
			continue
		}
		for _, r := range rows {
			ts, _ := r.Cells[tsIdx].AsInt()
			if ts < from || ts >= to {
				continue
			}
			if where != nil && !where.Eval(s.tableSchema, r) {
				continue
			}
			matched = append(matched, r.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, _ := matched[i].Cells[tsIdx].AsInt()
		b, _ := matched[j].Cells[tsIdx].AsInt()
		return a < b
	})

	out := make([]*kadedb.Row, len(matched))
	for i, r := range matched {
		out[i] = projectRow(r, idxs)
	}
	return out, nil
}

// Aggregation selects the per-bucket reduction Aggregate applies to a
// value column.
type Aggregation int

const (
	AggCount Aggregation = iota
	AggSum
	AggMin
	AggMax
	AggAvg
)

// BucketGranularity is the unit bucketWidth is expressed in when
// Aggregate groups rows into buckets, independent of the series'
// own storage partition (Hourly/Daily).
type BucketGranularity int

const (
	GranSeconds BucketGranularity = iota
	GranMinutes
	GranHours
	GranDays
)

func (g BucketGranularity) seconds() int64 {
	switch g {
	case GranMinutes:
		return 60
	case GranHours:
		return secondsPerHour
	case GranDays:
		return secondsPerDay
	default:
		return 1
	}
}

type aggBucket struct {
	count      int
	sum        float64
	min, max   float64
	sawNumeric bool
}

// Aggregate groups every sample with a timestamp in the half-open
// interval [from, to) that matches where into buckets of width
// bucketWidth*granularity seconds (bucket key = from +
// floor_div(ts-from, widthSec)*widthSec), reduces valueColumn within
// each bucket by agg, and returns a two-column ResultSet
// (bucket_start:Integer, value) sorted by bucket_start ascending. For
// AggCount, valueColumn is not consulted: every row in range counts,
// numeric or not.
func (e *Engine) Aggregate(name, valueColumn string, agg Aggregation, from, to, bucketWidth int64, granularity BucketGranularity, where *kadedb.Predicate) (*kadedb.ResultSet, error) {
	e.mu.Lock()
	s, ok := e.series[name]
	var tsIdx int
	if ok {
		tsIdx = s.tableSchema.ColumnIndex(s.schema.TimestampColumn)
	}
	e.mu.Unlock()
	if !ok {
		return nil, seriesNotFound(name, "aggregate")
	}

	valIdx := -1
	if agg != AggCount {
		valIdx = s.tableSchema.ColumnIndex(valueColumn)
		if valIdx < 0 {
			return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "unknown column %q", valueColumn).
				WithEntity(kadedb.EntityRef{Store: "timeseries", Name: name}).WithOperation("aggregate")
		}
	}

	rows, err := e.RangeQuery(name, nil, from, to, where)
	if err != nil {
		return nil, err
	}

	widthSec := bucketWidth * granularity.seconds()
	if widthSec < 1 {
		widthSec = 1
	}

	buckets := make(map[int64]*aggBucket)
	var order []int64
	for _, r := range rows {
		ts, _ := r.Cells[tsIdx].AsInt()
		key := from + floorDiv(ts-from, widthSec)*widthSec
		b, ok := buckets[key]
		if !ok {
			b = &aggBucket{}
			buckets[key] = b
			order = append(order, key)
		}
		b.count++
		if agg == AggCount {
			continue
		}
		f, ferr := r.Cells[valIdx].AsFloat()
		if ferr != nil {
			return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "column %q is not numeric", valueColumn).
				WithEntity(kadedb.EntityRef{Store: "timeseries", Name: name}).WithOperation("aggregate")
		}
		b.sum += f
		if !b.sawNumeric || f < b.min {
			b.min = f
		}
		if !b.sawNumeric || f > b.max {
			b.max = f
		}
		b.sawNumeric = true
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	valueType := kadedb.ColFloat
	if agg == AggCount {
		valueType = kadedb.ColInteger
	}
	rs := kadedb.NewResultSet([]string{"bucket_start", "value"}, []kadedb.ColumnType{kadedb.ColInteger, valueType})
	for _, key := range order {
		b := buckets[key]
		var val kadedb.Value
		switch agg {
		case AggCount:
			val = kadedb.NewInteger(int64(b.count))
		case AggSum:
			val = kadedb.NewFloat(b.sum)
		case AggMin:
			val = kadedb.NewFloat(b.min)
		case AggMax:
			val = kadedb.NewFloat(b.max)
		case AggAvg:
			val = kadedb.NewFloat(b.sum / float64(b.count))
		default:
			return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "unknown aggregation").
				WithEntity(kadedb.EntityRef{Store: "timeseries", Name: name}).WithOperation("aggregate")
		}
		rs.AddRow(kadedb.NewInteger(key), val)
	}
	return rs, nil
}

func seriesNotFound(name, op string) error {
	return kadedb.NewEngineError(kadedb.NotFound, "series %q does not exist", name).
		WithEntity(kadedb.EntityRef{Store: "timeseries", Name: name}).WithOperation(op)
}

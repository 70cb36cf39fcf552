package timeseries_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadedb/kadedb"
	"github.com/kadedb/kadedb/internal/timeseries"
)

func cpuSchema() *kadedb.TimeSeriesSchema {
	ts := kadedb.NewTimeSeriesSchema("ts", kadedb.PartitionHourly, kadedb.RetentionPolicy{})
	ts.AddTagColumn(kadedb.Column{Name: "host", Type: kadedb.ColString})
	ts.AddValueColumn(kadedb.Column{Name: "usage", Type: kadedb.ColFloat})
	return ts
}

func TestAppendAndRangeQuery(t *testing.T) {
	e := timeseries.NewEngine()
	require.NoError(t, e.CreateSeries("cpu", cpuSchema()))

	for i, ts := range []int64{100, 200, 50} {
		require.NoError(t, e.Append("cpu", kadedb.NewRow(kadedb.NewInteger(ts), kadedb.NewString("h1"), kadedb.NewFloat(float64(i)))))
	}

	rows, err := e.RangeQuery("cpu", nil, 0, 1000, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	first, _ := rows[0].Cells[0].AsInt()
	assert.Equal(t, int64(50), first, "range query must be sorted ascending by timestamp")
}

func TestRangeQueryUpperBoundIsExclusive(t *testing.T) {
	e := timeseries.NewEngine()
	require.NoError(t, e.CreateSeries("cpu", cpuSchema()))
	require.NoError(t, e.Append("cpu", kadedb.NewRow(kadedb.NewInteger(100), kadedb.NewString("h1"), kadedb.NewFloat(1))))

	rows, err := e.RangeQuery("cpu", nil, 0, 100, nil)
	require.NoError(t, err)
	assert.Empty(t, rows, "the end bound of [from,to) is exclusive")

	rows, err = e.RangeQuery("cpu", nil, 0, 101, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRangeQueryProjectionAndPredicate(t *testing.T) {
	e := timeseries.NewEngine()
	require.NoError(t, e.CreateSeries("cpu", cpuSchema()))
	require.NoError(t, e.Append("cpu", kadedb.NewRow(kadedb.NewInteger(100), kadedb.NewString("h1"), kadedb.NewFloat(10))))
	require.NoError(t, e.Append("cpu", kadedb.NewRow(kadedb.NewInteger(200), kadedb.NewString("h2"), kadedb.NewFloat(20))))

	rows, err := e.RangeQuery("cpu", []string{"usage"}, 0, 1000, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Len(t, rows[0].Cells, 1)

	where := kadedb.Ptr(kadedb.Comparison("host", kadedb.OpEq, kadedb.NewString("h2")))
	rows, err = e.RangeQuery("cpu", nil, 0, 1000, where)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	f, _ := rows[0].Cells[2].AsFloat()
	assert.Equal(t, 20.0, f)
}

func TestRangeQueryRejectsUnknownProjectionColumn(t *testing.T) {
	e := timeseries.NewEngine()
	require.NoError(t, e.CreateSeries("cpu", cpuSchema()))

	_, err := e.RangeQuery("cpu", []string{"nope"}, 0, 1000, nil)
	require.Error(t, err)
	assert.True(t, kadedb.IsInvalidArgument(err))
}

func TestBucketStartFloorsNegativeTimestamps(t *testing.T) {
	e := timeseries.NewEngine()
	require.NoError(t, e.CreateSeries("cpu", cpuSchema()))
	require.NoError(t, e.Append("cpu", kadedb.NewRow(kadedb.NewInteger(-1), kadedb.NewString("h1"), kadedb.NewFloat(1))))

	rows, err := e.RangeQuery("cpu", nil, -3600, 0, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1, "ts=-1 must floor into the [-3600,0) bucket, not truncate into [0,3600)")
}

func TestAggregateBucketsByWidth(t *testing.T) {
	schema := kadedb.NewTimeSeriesSchema("ts", kadedb.PartitionHourly, kadedb.RetentionPolicy{})
	schema.AddValueColumn(kadedb.Column{Name: "value", Type: kadedb.ColFloat})
	e := timeseries.NewEngine()
	require.NoError(t, e.CreateSeries("metrics", schema))

	timestamps := []int64{100, 105, 110, 115, 120, 125}
	values := []float64{10, 20, 30, 40, 50, 60}
	for i, ts := range timestamps {
		require.NoError(t, e.Append("metrics", kadedb.NewRow(kadedb.NewInteger(ts), kadedb.NewFloat(values[i]))))
	}

	rs, err := e.Aggregate("metrics", "value", timeseries.AggSum, 100, 130, 10, timeseries.GranSeconds, nil)
	require.NoError(t, err)
	require.Equal(t, 3, rs.RowCount())

	wantStarts := []int64{100, 110, 120}
	wantValues := []float64{30, 70, 110}
	for i := 0; i < rs.RowCount(); i++ {
		row, ok := rs.Row(i + 1)
		require.True(t, ok)
		start, _ := row.Cells[0].AsInt()
		val, _ := row.Cells[1].AsFloat()
		assert.Equal(t, wantStarts[i], start)
		assert.Equal(t, wantValues[i], val)
	}
}

func TestAggregateCountDoesNotRequireAValueColumn(t *testing.T) {
	e := timeseries.NewEngine()
	require.NoError(t, e.CreateSeries("cpu", cpuSchema()))
	for _, v := range []float64{10, 20, 30} {
		require.NoError(t, e.Append("cpu", kadedb.NewRow(kadedb.NewInteger(100), kadedb.NewString("h1"), kadedb.NewFloat(v))))
	}

	rs, err := e.Aggregate("cpu", "", timeseries.AggCount, 0, 1000, 1000, timeseries.GranSeconds, nil)
	require.NoError(t, err)
	require.Equal(t, 1, rs.RowCount())
	row, _ := rs.Row(1)
	count, _ := row.Cells[1].AsInt()
	assert.Equal(t, int64(3), count)
}

func TestAggregateAvg(t *testing.T) {
	e := timeseries.NewEngine()
	require.NoError(t, e.CreateSeries("cpu", cpuSchema()))
	for _, v := range []float64{10, 20, 30} {
		require.NoError(t, e.Append("cpu", kadedb.NewRow(kadedb.NewInteger(100), kadedb.NewString("h1"), kadedb.NewFloat(v))))
	}

	rs, err := e.Aggregate("cpu", "usage", timeseries.AggAvg, 0, 1000, 1000, timeseries.GranSeconds, nil)
	require.NoError(t, err)
	require.Equal(t, 1, rs.RowCount())
	row, _ := rs.Row(1)
	f, _ := row.Cells[1].AsFloat()
	assert.Equal(t, 20.0, f)
}

func TestRetentionByMaxRowsRequiresDropOldest(t *testing.T) {
	schema := kadedb.NewTimeSeriesSchema("ts", kadedb.PartitionHourly, kadedb.RetentionPolicy{MaxRows: 2})
	schema.AddValueColumn(kadedb.Column{Name: "usage", Type: kadedb.ColFloat})
	e := timeseries.NewEngine()
	require.NoError(t, e.CreateSeries("cpu", schema))

	for _, ts := range []int64{10, 20, 30} {
		require.NoError(t, e.Append("cpu", kadedb.NewRow(kadedb.NewInteger(ts), kadedb.NewFloat(1))))
	}

	rows, err := e.RangeQuery("cpu", nil, 0, 1000, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 3, "MaxRows without DropOldest must not evict anything")
}

func TestRetentionByMaxRowsWithDropOldest(t *testing.T) {
	schema := kadedb.NewTimeSeriesSchema("ts", kadedb.PartitionHourly, kadedb.RetentionPolicy{MaxRows: 2, DropOldest: true})
	schema.AddValueColumn(kadedb.Column{Name: "usage", Type: kadedb.ColFloat})
	e := timeseries.NewEngine()
	require.NoError(t, e.CreateSeries("cpu", schema))

	for _, ts := range []int64{10, 20, 30} {
		require.NoError(t, e.Append("cpu", kadedb.NewRow(kadedb.NewInteger(ts), kadedb.NewFloat(1))))
	}

	rows, err := e.RangeQuery("cpu", nil, 0, 1000, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(rows), 2)
}

func TestRetentionByMaxAgeTrimsIndividualRowsWithinASurvivingBucket(t *testing.T) {
	schema := kadedb.NewTimeSeriesSchema("ts", kadedb.PartitionHourly, kadedb.RetentionPolicy{MaxAge: 50})
	schema.AddValueColumn(kadedb.Column{Name: "usage", Type: kadedb.ColFloat})
	e := timeseries.NewEngine()
	require.NoError(t, e.CreateSeries("cpu", schema))

	// Both rows land in the same hourly bucket ([0,3600)), which is far
	// too young to be dropped wholesale; only the per-row phase can
	// evict the now-stale ts=100 sample once ts=200 raises the cutoff.
	require.NoError(t, e.Append("cpu", kadedb.NewRow(kadedb.NewInteger(100), kadedb.NewFloat(1))))
	require.NoError(t, e.Append("cpu", kadedb.NewRow(kadedb.NewInteger(200), kadedb.NewFloat(1))))

	rows, err := e.RangeQuery("cpu", nil, 0, 1000, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	ts, _ := rows[0].Cells[0].AsInt()
	assert.Equal(t, int64(200), ts)
}

package pagefile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadedb/kadedb/internal/pagefile"
)

func tempFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.kdb")
}

func TestCreateThenOpenRoundTripsHeader(t *testing.T) {
	path := tempFile(t)
	fm, err := pagefile.Create(path, 4096, nil)
	require.NoError(t, err)
	require.NoError(t, fm.Close())

	reopened, err := pagefile.Open(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, uint32(4096), reopened.PageSize())
	assert.Equal(t, uint64(pagefile.InitialPages), reopened.PageCount())
}

func TestOpenRejectsBadSignature(t *testing.T) {
	path := tempFile(t)
	fm, err := pagefile.Create(path, 4096, nil)
	require.NoError(t, err)
	require.NoError(t, fm.Close())

	corruptSignature(t, path)

	_, err = pagefile.Open(path, nil)
	require.Error(t, err)
}

func TestCreateRejectsOutOfBoundsPageSize(t *testing.T) {
	_, err := pagefile.Create(tempFile(t), 128, nil)
	require.Error(t, err)
	_, err = pagefile.Create(tempFile(t), 1<<20, nil)
	require.Error(t, err)
}

func TestAllocateWriteReadRoundTrip(t *testing.T) {
	fm, err := pagefile.Create(tempFile(t), 1024, nil)
	require.NoError(t, err)
	defer fm.Close()

	p, err := fm.AllocatePage(pagefile.PageData)
	require.NoError(t, err)
	copy(p.Data(), []byte("hello page"))
	require.NoError(t, fm.WritePage(p))

	got, err := fm.ReadPage(p.ID())
	require.NoError(t, err)
	assert.Equal(t, "hello page", string(got.Data()[:len("hello page")]))
	assert.Equal(t, pagefile.PageData, got.Header().Type)
}

func TestAllocateReusesFreedPageBeforeExtending(t *testing.T) {
	fm, err := pagefile.Create(tempFile(t), 1024, nil)
	require.NoError(t, err)
	defer fm.Close()

	before := fm.PageCount()
	p, err := fm.AllocatePage(pagefile.PageData)
	require.NoError(t, err)
	require.NoError(t, fm.FreePage(p.ID()))

	reused, err := fm.AllocatePage(pagefile.PageData)
	require.NoError(t, err)
	assert.Equal(t, p.ID(), reused.ID(), "freeing then allocating should reuse the same page id")
	assert.Equal(t, before, fm.PageCount(), "reuse from the free list must not grow the file")
}

func TestPageZeroCanNeverBeFreed(t *testing.T) {
	fm, err := pagefile.Create(tempFile(t), 1024, nil)
	require.NoError(t, err)
	defer fm.Close()

	err = fm.FreePage(0)
	require.Error(t, err)
}

func TestExtendFileGrowsPageCount(t *testing.T) {
	fm, err := pagefile.Create(tempFile(t), 1024, nil)
	require.NoError(t, err)
	defer fm.Close()

	before := fm.PageCount()
	require.NoError(t, fm.ExtendFile(3))
	assert.Equal(t, before+3, fm.PageCount())
}

func TestChecksumDetectsCorruption(t *testing.T) {
	fm, err := pagefile.Create(tempFile(t), 1024, nil)
	require.NoError(t, err)
	defer fm.Close()

	p, err := fm.AllocatePage(pagefile.PageData)
	require.NoError(t, err)
	copy(p.Data(), []byte("intact"))
	require.NoError(t, fm.WritePage(p))

	got, err := fm.ReadPage(p.ID())
	require.NoError(t, err)
	assert.True(t, got.VerifyChecksum())

	// Flip a data byte without recomputing the checksum.
	got.Data()[0] ^= 0xFF
	assert.False(t, got.VerifyChecksum())
}

func TestZeroChecksumIsTreatedAsUncomputed(t *testing.T) {
	fm, err := pagefile.Create(tempFile(t), 1024, nil)
	require.NoError(t, err)
	defer fm.Close()

	p, err := fm.AllocatePage(pagefile.PageData)
	require.NoError(t, err)
	h := p.Header()
	h.Checksum = 0
	p.SetHeader(h)
	assert.True(t, p.VerifyChecksum())
}

func corruptSignature(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[0] = 'X'
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

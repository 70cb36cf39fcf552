package pagefile

import (
	"encoding/binary"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/kadedb/kadedb"
)

// FileHeaderSize is the packed, fixed size of the file's leading
// FileHeader.
const FileHeaderSize = 128

var fileSignature = [6]byte{'K', 'A', 'D', 'E', 'D', 'B'}

// FormatVersion is the only version this package writes and accepts.
const FormatVersion uint16 = 1

// MinPageSize and MaxPageSize bound an accepted page_size.
const (
	MinPageSize = 512
	MaxPageSize = 65536
)

// InitialPages is how many pages a freshly created file holds, its
// header page (page 0) included.
const InitialPages = 4

// FileHeader is the 128-byte header at the front of every paged file:
// signature[6]="KADEDB", version(u16), page_size(u32), page_count(u64),
// free_page_list(u64), reserved[100].
type FileHeader struct {
	Version      uint16
	PageSize     uint32
	PageCount    uint64
	FreePageList PageID
}

func encodeFileHeader(h FileHeader, buf []byte) {
	copy(buf[0:6], fileSignature[:])
	binary.LittleEndian.PutUint16(buf[6:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.PageSize)
	binary.LittleEndian.PutUint64(buf[12:20], h.PageCount)
	binary.LittleEndian.PutUint64(buf[20:28], uint64(h.FreePageList))
	// buf[28:128] stays reserved/zeroed.
}

func decodeFileHeader(buf []byte) (FileHeader, error) {
	var sig [6]byte
	copy(sig[:], buf[0:6])
	if sig != fileSignature {
		return FileHeader{}, kadedb.NewEngineError(kadedb.InvalidArgument, "not a KadeDB paged file: bad signature")
	}
	h := FileHeader{
		Version:      binary.LittleEndian.Uint16(buf[6:8]),
		PageSize:     binary.LittleEndian.Uint32(buf[8:12]),
		PageCount:    binary.LittleEndian.Uint64(buf[12:20]),
		FreePageList: PageID(binary.LittleEndian.Uint64(buf[20:28])),
	}
	if h.Version != FormatVersion {
		return FileHeader{}, kadedb.NewEngineError(kadedb.InvalidArgument, "unsupported paged file version %d", h.Version)
	}
	if h.PageSize < MinPageSize || h.PageSize > MaxPageSize {
		return FileHeader{}, kadedb.NewEngineError(kadedb.InvalidArgument, "page size %d out of bounds [%d, %d]", h.PageSize, MinPageSize, MaxPageSize)
	}
	return h, nil
}

// FileManager owns a single paged file's descriptor, free list, and
// page layout. It performs synchronous, page-granular I/O via
// ReadAt/WriteAt rather than a memory mapping: no example in this
// module's dependency surface offers a cross-platform mmap, and the
// platform-specific x/sys/unix one is pulled in only transitively by
// unrelated tooling, never as a mapping primitive any corpus repo
// actually exercises, so direct file I/O is the grounded choice here.
type FileManager struct {
	mu     sync.Mutex
	f      *os.File
	path   string
	header FileHeader
	log    *zap.SugaredLogger
}

func pageOffset(id PageID, pageSize uint32) int64 {
	return int64(FileHeaderSize) + int64(id)*int64(pageSize)
}

// Create initializes a new paged file at path with the given page
// size, writes its header page, and extends it by InitialPages-1
// further free pages.
func Create(path string, pageSize uint32, log *zap.SugaredLogger) (*FileManager, error) {
	if pageSize < MinPageSize || pageSize > MaxPageSize {
		return nil, kadedb.NewEngineError(kadedb.InvalidArgument, "page size %d out of bounds [%d, %d]", pageSize, MinPageSize, MaxPageSize)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, kadedb.NewEngineError(kadedb.Internal, "create paged file: %v", err)
	}
	fm := &FileManager{f: f, path: path, log: log, header: FileHeader{Version: FormatVersion, PageSize: pageSize}}
	if err := fm.writeFileHeader(); err != nil {
		f.Close()
		return nil, err
	}
	// Page 0: the header/root page, initialized as Meta and never freed.
	root := newPage(uint16(pageSize), 0, PageMeta)
	if err := fm.writePageAt(0, root); err != nil {
		f.Close()
		return nil, err
	}
	fm.header.PageCount = 1
	if err := fm.writeFileHeader(); err != nil {
		f.Close()
		return nil, err
	}
	if err := fm.ExtendFile(InitialPages - 1); err != nil {
		f.Close()
		return nil, err
	}
	log.Debugw("paged file created", "path", path, "pageSize", pageSize, "pageCount", fm.header.PageCount)
	return fm, nil
}

// Open reads and validates an existing paged file's header.
func Open(path string, log *zap.SugaredLogger) (*FileManager, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, kadedb.NewEngineError(kadedb.NotFound, "open paged file: %v", err)
	}
	buf := make([]byte, FileHeaderSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		f.Close()
		return nil, kadedb.NewEngineError(kadedb.Internal, "read file header: %v", err)
	}
	header, err := decodeFileHeader(buf)
	if err != nil {
		f.Close()
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, kadedb.NewEngineError(kadedb.Internal, "stat paged file: %v", err)
	}
	header.PageCount = uint64((info.Size() - FileHeaderSize) / int64(header.PageSize))
	fm := &FileManager{f: f, path: path, log: log, header: header}
	log.Debugw("paged file opened", "path", path, "pageSize", header.PageSize, "pageCount", header.PageCount)
	return fm, nil
}

func (fm *FileManager) writeFileHeader() error {
	buf := make([]byte, FileHeaderSize)
	encodeFileHeader(fm.header, buf)
	if _, err := fm.f.WriteAt(buf, 0); err != nil {
		return kadedb.NewEngineError(kadedb.Internal, "write file header: %v", err)
	}
	return nil
}

func (fm *FileManager) readPageAt(id PageID) (*Page, error) {
	buf := make([]byte, fm.header.PageSize)
	if _, err := fm.f.ReadAt(buf, pageOffset(id, fm.header.PageSize)); err != nil {
		return nil, kadedb.NewEngineError(kadedb.Internal, "read page %d: %v", id, err)
	}
	p := &Page{buf: buf}
	if !p.VerifyChecksum() {
		return nil, checksumErr(uint64(id))
	}
	return p, nil
}

func (fm *FileManager) writePageAt(id PageID, p *Page) error {
	p.updateChecksum()
	if _, err := fm.f.WriteAt(p.Bytes(), pageOffset(id, fm.header.PageSize)); err != nil {
		return kadedb.NewEngineError(kadedb.Internal, "write page %d: %v", id, err)
	}
	return nil
}

// ReadPage reads page id directly from disk.
func (fm *FileManager) ReadPage(id PageID) (*Page, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	if uint64(id) >= fm.header.PageCount {
		return nil, kadedb.NewEngineError(kadedb.NotFound, "page %d does not exist", id)
	}
	return fm.readPageAt(id)
}

// WritePage recomputes p's checksum and writes it to disk at its own
// page number.
func (fm *FileManager) WritePage(p *Page) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return fm.writePageAt(p.ID(), p)
}

// AllocatePage returns a fresh page of the given type: popped from the
// free list if non-empty, otherwise obtained by extending the file by
// one page.
func (fm *FileManager) AllocatePage(typ PageType) (*Page, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if fm.header.FreePageList != noFreePage {
		id := fm.header.FreePageList
		freed, err := fm.readPageAt(id)
		if err != nil {
			return nil, err
		}
		fm.header.FreePageList = PageID(freed.Header().NextOverflow)
		if err := fm.writeFileHeader(); err != nil {
			return nil, err
		}
		p := newPage(uint16(fm.header.PageSize), uint64(id), typ)
		if err := fm.writePageAt(id, p); err != nil {
			return nil, err
		}
		fm.log.Debugw("allocated page from free list", "page", id, "type", typ.String())
		return p, nil
	}

	id := PageID(fm.header.PageCount)
	p := newPage(uint16(fm.header.PageSize), uint64(id), typ)
	if err := fm.growTo(fm.header.PageCount + 1); err != nil {
		return nil, err
	}
	if err := fm.writePageAt(id, p); err != nil {
		return nil, err
	}
	fm.log.Debugw("allocated page by extending file", "page", id, "type", typ.String())
	return p, nil
}

// FreePage pushes id onto the free list and marks it Free. Page 0 is
// never freed.
func (fm *FileManager) FreePage(id PageID) error {
	if id == 0 {
		return kadedb.NewEngineError(kadedb.InvalidArgument, "page 0 can never be freed")
	}
	fm.mu.Lock()
	defer fm.mu.Unlock()

	p, err := fm.readPageAt(id)
	if err != nil {
		return err
	}
	h := p.Header()
	h.Type = PageFree
	h.NextOverflow = uint64(fm.header.FreePageList)
	p.SetHeader(h)
	if err := fm.writePageAt(id, p); err != nil {
		return err
	}
	fm.header.FreePageList = id
	if err := fm.writeFileHeader(); err != nil {
		return err
	}
	fm.log.Debugw("freed page", "page", id)
	return nil
}

// ExtendFile grows the file by n pages, each initialized and pushed
// onto the free list.
func (fm *FileManager) ExtendFile(n int) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return fm.extendFileLocked(n)
}

func (fm *FileManager) extendFileLocked(n int) error {
	if n <= 0 {
		return nil
	}
	start := fm.header.PageCount
	if err := fm.growTo(start + uint64(n)); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		id := PageID(start + uint64(i))
		p := newPage(uint16(fm.header.PageSize), uint64(id), PageFree)
		h := p.Header()
		h.NextOverflow = uint64(fm.header.FreePageList)
		p.SetHeader(h)
		if err := fm.writePageAt(id, p); err != nil {
			return err
		}
		fm.header.FreePageList = id
	}
	return fm.writeFileHeader()
}

// growTo truncates the file so it can hold pageCount pages and updates
// the in-memory header's page count, without touching the free list.
func (fm *FileManager) growTo(pageCount uint64) error {
	size := int64(FileHeaderSize) + int64(pageCount)*int64(fm.header.PageSize)
	if err := fm.f.Truncate(size); err != nil {
		return kadedb.NewEngineError(kadedb.Internal, "extend paged file: %v", err)
	}
	fm.header.PageCount = pageCount
	return nil
}

// Flush syncs the file to stable storage.
func (fm *FileManager) Flush() error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	if err := fm.f.Sync(); err != nil {
		return kadedb.NewEngineError(kadedb.Internal, "flush paged file: %v", err)
	}
	return nil
}

// PageSize returns the file's fixed page size.
func (fm *FileManager) PageSize() uint32 {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return fm.header.PageSize
}

// PageCount returns the number of pages currently in the file.
func (fm *FileManager) PageCount() uint64 {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return fm.header.PageCount
}

// Close flushes and closes the underlying file.
func (fm *FileManager) Close() error {
	if err := fm.Flush(); err != nil {
		return err
	}
	return fm.f.Close()
}

// Package pagefile implements the on-disk paged file format and its
// buffer-managed page cache: a FileManager owning the fixed-size page
// layout and free list, and a PageManager (LRU buffer pool) layered
// over it. The format is intended to back a future persistent storage
// variant; today's in-memory engines (relational/document/graph/
// timeseries) do not depend on this package.
package pagefile

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/kadedb/kadedb"
)

// PageID identifies a page by its ordinal position in the file,
// counting from 0 immediately after the FileHeader.
type PageID uint64

// noFreePage is the free-list terminator. Page 0 is never freed (it
// doubles as the file's root/metadata page), so reusing 0 as "no next
// free page" is unambiguous.
const noFreePage PageID = 0

// PageType discriminates what a page currently holds.
type PageType uint8

const (
	PageInvalid PageType = iota
	PageData
	PageIndex
	PageMeta
	PageFree
	PageOverflow
)

func (t PageType) String() string {
	switch t {
	case PageData:
		return "data"
	case PageIndex:
		return "index"
	case PageMeta:
		return "meta"
	case PageFree:
		return "free"
	case PageOverflow:
		return "overflow"
	default:
		return "invalid"
	}
}

const (
	flagDirty    uint8 = 1 << 0
	flagOverflow uint8 = 1 << 1
)

// PageHeaderSize is the packed, fixed size of a PageHeader at the
// front of every page.
const PageHeaderSize = 32

// PageHeader is the fixed-layout header at the front of every page:
// checksum(u32) page_size(u16) type(u8) flags(u8) page_num(u64)
// free_space(u16) free_offset(u16) next_overflow(u64) owner_page(u32).
// The checksum is computed with its own field zeroed.
type PageHeader struct {
	Checksum     uint32
	PageSize     uint16
	Type         PageType
	Flags        uint8
	PageNum      uint64
	FreeSpace    uint16
	FreeOffset   uint16
	NextOverflow uint64
	OwnerPage    uint32
}

func (h PageHeader) Dirty() bool    { return h.Flags&flagDirty != 0 }
func (h PageHeader) Overflow() bool { return h.Flags&flagOverflow != 0 }

func (h *PageHeader) setDirty(d bool) {
	if d {
		h.Flags |= flagDirty
	} else {
		h.Flags &^= flagDirty
	}
}

func encodePageHeader(h PageHeader, buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Checksum)
	binary.LittleEndian.PutUint16(buf[4:6], h.PageSize)
	buf[6] = byte(h.Type)
	buf[7] = h.Flags
	binary.LittleEndian.PutUint64(buf[8:16], h.PageNum)
	binary.LittleEndian.PutUint16(buf[16:18], h.FreeSpace)
	binary.LittleEndian.PutUint16(buf[18:20], h.FreeOffset)
	binary.LittleEndian.PutUint64(buf[20:28], h.NextOverflow)
	binary.LittleEndian.PutUint32(buf[28:32], h.OwnerPage)
}

func decodePageHeader(buf []byte) PageHeader {
	return PageHeader{
		Checksum:     binary.LittleEndian.Uint32(buf[0:4]),
		PageSize:     binary.LittleEndian.Uint16(buf[4:6]),
		Type:         PageType(buf[6]),
		Flags:        buf[7],
		PageNum:      binary.LittleEndian.Uint64(buf[8:16]),
		FreeSpace:    binary.LittleEndian.Uint16(buf[16:18]),
		FreeOffset:   binary.LittleEndian.Uint16(buf[18:20]),
		NextOverflow: binary.LittleEndian.Uint64(buf[20:28]),
		OwnerPage:    binary.LittleEndian.Uint32(buf[28:32]),
	}
}

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// Page is one fixed-size page of the file: a PageHeader followed by a
// user-data region, both backed by a single contiguous byte buffer.
type Page struct {
	buf []byte
}

// newPage allocates a zeroed page of size pageSize and initializes its
// header for pageNum/typ, with the whole body free.
func newPage(pageSize uint16, pageNum uint64, typ PageType) *Page {
	p := &Page{buf: make([]byte, pageSize)}
	p.SetHeader(PageHeader{
		PageSize:   pageSize,
		Type:       typ,
		PageNum:    pageNum,
		FreeSpace:  pageSize - PageHeaderSize,
		FreeOffset: PageHeaderSize,
	})
	return p
}

// Header decodes the page's current header.
func (p *Page) Header() PageHeader { return decodePageHeader(p.buf[:PageHeaderSize]) }

// SetHeader overwrites the page's header in place.
func (p *Page) SetHeader(h PageHeader) { encodePageHeader(h, p.buf[:PageHeaderSize]) }

// Data returns the page's user-data region, excluding the header.
func (p *Page) Data() []byte { return p.buf[PageHeaderSize:] }

// Bytes returns the full page buffer, header included.
func (p *Page) Bytes() []byte { return p.buf }

// ID returns the page's own page number as a PageID.
func (p *Page) ID() PageID { return PageID(p.Header().PageNum) }

// updateChecksum recomputes and stores the page's CRC32C checksum,
// computed over the page with its checksum field zeroed.
func (p *Page) updateChecksum() {
	h := p.Header()
	h.Checksum = 0
	p.SetHeader(h)
	cs := crc32.Checksum(p.buf, crcTable)
	h.Checksum = cs
	p.SetHeader(h)
}

// VerifyChecksum recomputes CRC32C over the page with its checksum
// field zeroed and compares it to the stored value. A stored checksum
// of zero is treated as "not checksummed" and always passes.
func (p *Page) VerifyChecksum() bool {
	h := p.Header()
	if h.Checksum == 0 {
		return true
	}
	want := h.Checksum
	h.Checksum = 0
	tmp := make([]byte, len(p.buf))
	copy(tmp, p.buf)
	encodePageHeader(h, tmp[:PageHeaderSize])
	return crc32.Checksum(tmp, crcTable) == want
}

func checksumErr(pageNum uint64) error {
	return kadedb.NewEngineError(kadedb.Internal, "page %d failed checksum verification", pageNum)
}

package data

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"bkmview/internal/util/logx"
)

// DefaultPageSize is the number of rows held by the page cache of a file-backed table.
const DefaultPageSize = 1000

var (
	ErrEmptyTable      = errors.New("no header row")
	ErrMalformedRecord = errors.New("malformed record")
	ErrGzipTooLarge    = errors.New("compressed input exceeds size limit")
)

// Row is one record; its length always equals len(Table.Headers).
type Row []string

type LoadOptions struct {
	PageSize int
	// Comma overrides delimiter detection when non-zero.
	Comma rune
	// Plain files up to EagerBytes are materialized fully.
	EagerBytes int64
	// MaxGzipBytes > 0 rejects compressed inputs larger than the limit.
	MaxGzipBytes int64
	// NoCache skips the on-disk page index cache.
	NoCache bool
}

type page struct {
	start int
	rows  []Row
	errs  []error
}

// Table is either fully materialized (rows != nil) or file-backed with a
// single-page cache. The cache is not safe for concurrent use; hand a Clone
// to other goroutines.
type Table struct {
	Headers []string

	path     string
	gz       bool
	comma    rune
	total    int
	pageSize int

	rows    []Row
	offsets []int64
	cache   *page
}

func Load(path string, opt LoadOptions) (*Table, error) {
	if opt.PageSize <= 0 {
		opt.PageSize = DefaultPageSize
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	t := &Table{path: path, pageSize: opt.PageSize}

	br := bufio.NewReaderSize(f, 64*1024)
	if magic, _ := br.Peek(2); len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		t.gz = true
	}
	if t.gz {
		if opt.MaxGzipBytes > 0 && st.Size() > opt.MaxGzipBytes {
			return nil, fmt.Errorf("%w: %s is %s (limit %s)", ErrGzipTooLarge, path,
				humanize.Bytes(uint64(st.Size())), humanize.Bytes(uint64(opt.MaxGzipBytes)))
		}
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		defer zr.Close()
		zb := bufio.NewReaderSize(zr, 64*1024)
		t.comma = pickComma(zb, opt.Comma)
		if err := t.materialize(zb); err != nil {
			return nil, err
		}
		logx.Infof("data: loaded %s rows from compressed %s", humanize.Comma(int64(t.total)), path)
		return t, nil
	}

	t.comma = pickComma(br, opt.Comma)
	if st.Size() <= opt.EagerBytes {
		if err := t.materialize(br); err != nil {
			return nil, err
		}
		logx.Infof("data: loaded %s rows from %s", humanize.Comma(int64(t.total)), path)
		return t, nil
	}
	if !opt.NoCache {
		if ix, ok := loadIndexCache(path, st, t.pageSize, t.comma); ok {
			t.Headers, t.total, t.offsets = ix.Headers, ix.Total, ix.Offsets
			logx.Infof("data: page index for %s served from cache (%s rows)", path, humanize.Comma(int64(t.total)))
			return t, nil
		}
	}
	if err := t.index(br); err != nil {
		return nil, err
	}
	logx.Infof("data: indexed %s rows in %d pages from %s (%s)", humanize.Comma(int64(t.total)),
		len(t.offsets), path, humanize.Bytes(uint64(st.Size())))
	if !opt.NoCache {
		if err := saveIndexCache(path, st, pageIndex{Headers: t.Headers, Total: t.total, Offsets: t.offsets, PageSize: t.pageSize, Comma: t.comma}); err != nil {
			logx.Warnf("data: page index cache not saved: %v", err)
		}
	}
	return t, nil
}

func pickComma(br *bufio.Reader, override rune) rune {
	if override != 0 {
		return override
	}
	head, _ := br.Peek(4096)
	line := string(head)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return DetectDelimiter(line)
}

func (t *Table) newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = t.comma
	return cr
}

func (t *Table) readHeader(cr *csv.Reader) error {
	rec, err := cr.Read()
	if err == io.EOF {
		return ErrEmptyTable
	}
	if err != nil {
		return fmt.Errorf("%w: header: %v", ErrMalformedRecord, err)
	}
	t.Headers = make([]string, len(rec))
	for i, h := range rec {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		t.Headers[i] = strings.TrimSpace(h)
	}
	return nil
}

func (t *Table) materialize(r io.Reader) error {
	cr := t.newReader(r)
	if err := t.readHeader(cr); err != nil {
		return err
	}
	rows := make([]Row, 0, 1024)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		rows = append(rows, Row(rec))
	}
	t.rows = rows
	t.total = len(rows)
	return nil
}

// index counts rows and records the byte offset of every page start
// without retaining any rows.
func (t *Table) index(r io.Reader) error {
	cr := t.newReader(r)
	cr.ReuseRecord = true
	if err := t.readHeader(cr); err != nil {
		return err
	}
	n := 0
	var offsets []int64
	for {
		off := cr.InputOffset()
		_, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		if n%t.pageSize == 0 {
			offsets = append(offsets, off)
		}
		n++
	}
	t.total = n
	t.offsets = offsets
	return nil
}

func (t *Table) Len() int         { return t.total }
func (t *Table) Path() string     { return t.path }
func (t *Table) Compressed() bool { return t.gz }
func (t *Table) Paged() bool      { return t.rows == nil }
func (t *Table) Delimiter() rune  { return t.comma }
func (t *Table) PageSize() int    { return t.pageSize }

// ColumnIndex returns the position of a header (case-insensitive) or -1.
func (t *Table) ColumnIndex(name string) int {
	name = strings.TrimSpace(name)
	for i, h := range t.Headers {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// Row returns row i, loading its page into the cache on a miss.
func (t *Table) Row(i int) (Row, error) {
	if i < 0 || i >= t.total {
		return nil, fmt.Errorf("row %d out of range [0,%d)", i, t.total)
	}
	if t.rows != nil {
		return t.rows[i], nil
	}
	start := (i / t.pageSize) * t.pageSize
	if t.cache == nil || t.cache.start != start {
		p, err := t.readPage(i / t.pageSize)
		if err != nil {
			return nil, err
		}
		t.cache = p
	}
	j := i - t.cache.start
	if j >= len(t.cache.rows) {
		return nil, fmt.Errorf("row %d: file shorter than indexed", i)
	}
	if err := t.cache.errs[j]; err != nil {
		return nil, err
	}
	return t.cache.rows[j], nil
}

// RowOrEmpty treats an unreadable row as a row of empty fields.
func (t *Table) RowOrEmpty(i int) Row {
	r, err := t.Row(i)
	if err != nil {
		logx.Warnf("data: %v", err)
		return make(Row, len(t.Headers))
	}
	return r
}

func (t *Table) readPage(p int) (*page, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("reopen %s: %w", t.path, err)
	}
	defer f.Close()
	if _, err := f.Seek(t.offsets[p], io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek page %d: %w", p, err)
	}
	cr := t.newReader(bufio.NewReaderSize(f, 64*1024))
	cr.FieldsPerRecord = len(t.Headers)
	start := p * t.pageSize
	n := t.pageSize
	if start+n > t.total {
		n = t.total - start
	}
	pg := &page{start: start, rows: make([]Row, 0, n), errs: make([]error, 0, n)}
	for len(pg.rows) < n {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			pg.rows = append(pg.rows, make(Row, len(t.Headers)))
			pg.errs = append(pg.errs, fmt.Errorf("row %d: %w", start+len(pg.rows)-1, err))
			continue
		}
		pg.rows = append(pg.rows, Row(rec))
		pg.errs = append(pg.errs, nil)
	}
	return pg, nil
}

// Scan visits every row in file order. Unreadable rows are passed as empty
// rows. It never touches the page cache.
func (t *Table) Scan(ctx context.Context, fn func(i int, r Row) error) error {
	if t.rows != nil {
		for i, r := range t.rows {
			if i%1024 == 0 && ctx.Err() != nil {
				return ctx.Err()
			}
			if err := fn(i, r); err != nil {
				return err
			}
		}
		return nil
	}
	f, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("reopen %s: %w", t.path, err)
	}
	defer f.Close()
	cr := t.newReader(bufio.NewReaderSize(f, 256*1024))
	cr.FieldsPerRecord = -1
	if _, err := cr.Read(); err != nil {
		return fmt.Errorf("%w: header: %v", ErrMalformedRecord, err)
	}
	for i := 0; i < t.total; i++ {
		if i%1024 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		rec, err := cr.Read()
		if err == io.EOF {
			return fmt.Errorf("row %d: file shorter than indexed", i)
		}
		if err != nil || len(rec) != len(t.Headers) {
			if err == nil {
				err = csv.ErrFieldCount
			}
			logx.Warnf("data: row %d: %v", i, err)
			rec = make([]string, len(t.Headers))
		}
		if err := fn(i, Row(rec)); err != nil {
			return err
		}
	}
	return nil
}

// Clone shares the immutable row data and page offsets with t but owns an
// empty page cache.
func (t *Table) Clone() *Table {
	c := *t
	c.cache = nil
	return &c
}

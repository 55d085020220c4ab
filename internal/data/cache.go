package data

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bkmview/internal/util/logx"
)

// pageIndex is the result of the counting scan of a file-backed table.
type pageIndex struct {
	Path     string   `json:"path"`
	Size     int64    `json:"size"`
	ModTime  int64    `json:"modTime"`
	PageSize int      `json:"pageSize"`
	Comma    rune     `json:"comma"`
	Headers  []string `json:"headers"`
	Total    int      `json:"total"`
	Offsets  []int64  `json:"offsets"`
}

// cacheDir can be overridden in tests.
var cacheDir = func() string {
	return filepath.Join(os.TempDir(), "bkmview-index-cache")
}

// cacheKey derives a stable key from the absolute file path.
func cacheKey(filePath string) (string, error) {
	if strings.TrimSpace(filePath) == "" {
		return "", errors.New("empty path")
	}
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return "", err
	}
	h := sha1.Sum([]byte(abs))
	return hex.EncodeToString(h[:]), nil
}

func cachePath(filePath string) (string, error) {
	key, err := cacheKey(filePath)
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir(), fmt.Sprintf("index_%s.json", key)), nil
}

// loadIndexCache returns a cached page index when the file is unchanged
// since it was written.
func loadIndexCache(filePath string, st os.FileInfo, pageSize int, comma rune) (pageIndex, bool) {
	p, err := cachePath(filePath)
	if err != nil {
		return pageIndex{}, false
	}
	f, err := os.Open(p)
	if err != nil {
		return pageIndex{}, false
	}
	defer f.Close()
	var ix pageIndex
	if err := json.NewDecoder(f).Decode(&ix); err != nil {
		return pageIndex{}, false
	}
	if ix.Size != st.Size() || ix.ModTime != st.ModTime().UnixNano() || ix.PageSize != pageSize || ix.Comma != comma {
		return pageIndex{}, false
	}
	if len(ix.Headers) == 0 || len(ix.Offsets) != (ix.Total+pageSize-1)/pageSize {
		return pageIndex{}, false
	}
	return ix, true
}

func saveIndexCache(filePath string, st os.FileInfo, ix pageIndex) error {
	p, err := cachePath(filePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	ix.Path, ix.Size, ix.ModTime = filePath, st.Size(), st.ModTime().UnixNano()
	tmp := p + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(ix); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		return err
	}
	logx.Debugf("data: page index cached at %s", p)
	return nil
}

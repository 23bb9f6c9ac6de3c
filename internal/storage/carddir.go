package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ImageExt is the extension of every card image.
const ImageExt = ".png"

// TimestampLayout is the creation-time part of a card filename.
const TimestampLayout = "20060102_150405"

// CardFilename names the image for story id rendered at t (local time).
func CardFilename(id string, t time.Time) string {
	return id + "_" + t.Local().Format(TimestampLayout) + ImageExt
}

// ParseCardFilename recovers the story id and creation time from a name
// produced by CardFilename. The timestamp is always the last 15 characters
// before the extension, so ids containing underscores parse correctly.
func ParseCardFilename(name string) (id string, created time.Time, ok bool) {
	stem, found := strings.CutSuffix(name, ImageExt)
	if !found || len(stem) < len(TimestampLayout)+2 {
		return "", time.Time{}, false
	}

	cut := len(stem) - len(TimestampLayout)
	if stem[cut-1] != '_' {
		return "", time.Time{}, false
	}

	created, err := time.ParseInLocation(TimestampLayout, stem[cut:], time.Local)
	if err != nil {
		return "", time.Time{}, false
	}
	return stem[:cut-1], created, true
}

// CardDir is the append-only directory of card images.
type CardDir struct {
	dir string
}

// NewCardDir returns a CardDir rooted at dir. The directory is created by
// Ensure or on the first Write.
func NewCardDir(dir string) *CardDir {
	return &CardDir{dir: dir}
}

// Path returns the directory location.
func (d *CardDir) Path() string {
	return d.dir
}

// Ensure creates the directory if it does not exist.
func (d *CardDir) Ensure() error {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("create card directory: %w", err)
	}
	return nil
}

// validName rejects anything that is not a plain file name.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// Write creates filename with data. Existing files are never overwritten.
// A failed write leaves whatever was written in place.
func (d *CardDir) Write(filename string, data []byte) error {
	if !validName(filename) {
		return fmt.Errorf("invalid card filename %q", filename)
	}
	if err := d.Ensure(); err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(d.dir, filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("create card file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write card file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close card file: %w", err)
	}
	return nil
}

// Open opens a card image for reading. It returns ErrCardNotFound for
// names that do not exist or are not plain image files.
func (d *CardDir) Open(filename string) (*os.File, fs.FileInfo, error) {
	if !validName(filename) {
		return nil, nil, fmt.Errorf("card %q: %w", filename, ErrCardNotFound)
	}

	f, err := os.Open(filepath.Join(d.dir, filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("card %q: %w", filename, ErrCardNotFound)
		}
		return nil, nil, fmt.Errorf("open card: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat card: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("card %q: %w", filename, ErrCardNotFound)
	}
	return f, info, nil
}

// List returns every regular file ending in ImageExt, most recently
// modified first. A missing directory yields an empty list.
func (d *CardDir) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(d.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("read card directory: %w", err)
	}

	entries := []Entry{}
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ImageExt) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", de.Name(), err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		e := Entry{
			Filename: de.Name(),
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		}
		if id, created, ok := ParseCardFilename(e.Filename); ok {
			e.ID, e.CreatedAt, e.Parsed = id, created, true
		} else {
			e.ID = strings.TrimSuffix(e.Filename, ImageExt)
			e.CreatedAt = e.ModTime
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ModTime.Equal(entries[j].ModTime) {
			return entries[i].ModTime.After(entries[j].ModTime)
		}
		return entries[i].Filename > entries[j].Filename
	})
	return entries, nil
}

// Usage reports the number of card images and their total size in bytes.
func (d *CardDir) Usage() (count int, bytes int64, err error) {
	entries, err := d.List()
	if err != nil {
		return 0, 0, err
	}
	for _, e := range entries {
		bytes += e.Size
	}
	return len(entries), bytes, nil
}

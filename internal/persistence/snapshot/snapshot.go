package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Save archive: one zstd stream per save file. The first line is a small JSON
// header so tooling can list archives without inflating the whole body; the
// rest of the stream is the save envelope as produced by the sim.

type Header struct {
	Version int    `json:"version"`
	Game    string `json:"game"`
	Day     int    `json:"day"`
	SavedAt string `json:"saved_at"`
}

// Entry pairs an archive path with its scanned header.
type Entry struct {
	Path   string
	Header Header
}

func Write(path string, h Header, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(h)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if _, err := bw.Write(payload); err != nil {
		return err
	}
	return nil
}

func Read(path string) (Header, []byte, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, nil, fmt.Errorf("archive header: %w", err)
	}
	if err := json.Unmarshal(bytes.TrimSpace(line), &h); err != nil {
		return h, nil, fmt.Errorf("archive header: %w", err)
	}
	payload, err := io.ReadAll(br)
	if err != nil {
		return h, nil, err
	}
	return h, payload, nil
}

// ReadHeader scans just the header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReaderSize(dec, 64*1024).ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return h, fmt.Errorf("archive header: %w", err)
	}
	if err := json.Unmarshal(bytes.TrimSpace(line), &h); err != nil {
		return h, fmt.Errorf("archive header: %w", err)
	}
	return h, nil
}

// List scans every .sav.zst under dir, newest day first. Unreadable files are
// skipped rather than failing the whole listing.
func List(dir string) ([]Entry, error) {
	names, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []Entry
	for _, de := range names {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".sav.zst") {
			continue
		}
		p := filepath.Join(dir, de.Name())
		h, err := ReadHeader(p)
		if err != nil {
			continue
		}
		out = append(out, Entry{Path: p, Header: h})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Header.Day != out[j].Header.Day {
			return out[i].Header.Day > out[j].Header.Day
		}
		return out[i].Path > out[j].Path
	})
	return out, nil
}

// PathFor names an archive for a given day inside dir.
func PathFor(dir string, day int) string {
	return filepath.Join(dir, fmt.Sprintf("day-%06d.sav.zst", day))
}

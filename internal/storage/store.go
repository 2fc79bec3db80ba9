package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/palcycle/internal/cycle"
)

const (
	metadataFile = "metadata.json"
	tableFile    = "table.csv"
	frameFile    = "frame.png"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// CaptureMetadata describes one saved frame.
type CaptureMetadata struct {
	ID        string    `json:"id"`
	Scene     string    `json:"scene"`
	Palette   string    `json:"palette"`
	Timestamp time.Time `json:"timestamp"`
	Seconds   uint32    `json:"seconds"`
	Clock     uint64    `json:"clock_ms"`
	Speed     int       `json:"speed_constant"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
}

// Save writes meta, the color table and, when frame is not nil, the composed
// image into a new capture directory and returns its id.
func (s *Store) Save(meta CaptureMetadata, table *cycle.Table, frame image.Image) (string, error) {
	now := s.now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Scene, now.UnixNano())
	meta.Timestamp = now

	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(dir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeTable(filepath.Join(dir, tableFile), table); err != nil {
		return "", err
	}

	if frame != nil {
		f, err := os.Create(filepath.Join(dir, frameFile))
		if err != nil {
			return "", err
		}
		defer f.Close()
		if err := png.Encode(f, frame); err != nil {
			return "", err
		}
	}

	return meta.ID, nil
}

func writeTable(path string, table *cycle.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"index", "r", "g", "b"}); err != nil {
		return err
	}
	for i, c := range table {
		row := []string{
			strconv.Itoa(i),
			strconv.Itoa(int(c[0])),
			strconv.Itoa(int(c[1])),
			strconv.Itoa(int(c[2])),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every capture, oldest first. Unreadable entries are skipped.
func (s *Store) List() ([]CaptureMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []CaptureMetadata{}, nil
		}
		return nil, err
	}

	captures := make([]CaptureMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		captures = append(captures, *meta)
	}

	sort.Slice(captures, func(i, j int) bool { return captures[i].Timestamp.Before(captures[j].Timestamp) })
	return captures, nil
}

func (s *Store) Load(id string) (*CaptureMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta CaptureMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTable reads back the color table of a capture.
func (s *Store) LoadTable(id string) (cycle.Table, error) {
	var table cycle.Table

	f, err := os.Open(filepath.Join(s.baseDir, id, tableFile))
	if err != nil {
		return table, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return table, err
	}

	for _, record := range records[min(1, len(records)):] {
		if len(record) != 4 {
			return table, fmt.Errorf("capture %s: malformed table row %v", id, record)
		}
		var vals [4]int
		for j, field := range record {
			v, err := strconv.Atoi(field)
			if err != nil {
				return table, fmt.Errorf("capture %s: %w", id, err)
			}
			vals[j] = v
		}
		if vals[0] < 0 || vals[0] >= len(table) {
			return table, fmt.Errorf("capture %s: slot %d out of range", id, vals[0])
		}
		for _, v := range vals[1:] {
			if v < 0 || v > 255 {
				return table, fmt.Errorf("capture %s: slot %d channel value %d out of range", id, vals[0], v)
			}
		}
		table[vals[0]] = [3]uint8{uint8(vals[1]), uint8(vals[2]), uint8(vals[3])}
	}
	return table, nil
}

// FramePath returns where the capture's image is stored.
func (s *Store) FramePath(id string) string {
	return filepath.Join(s.baseDir, id, frameFile)
}

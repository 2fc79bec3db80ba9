package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type document struct {
	Base struct {
		Width  int   `json:"width"`
		Height int   `json:"height"`
		Pixels []int `json:"pixels"`
	} `json:"base"`
	Palettes map[string]PaletteDefinition `json:"palettes"`
	Timeline map[string]string            `json:"timeline"`
}

// Load reads and validates a scene file. The scene is named after the file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Decode(name, bytes.NewReader(data))
}

// Decode reads a scene document from r.
func Decode(name string, r io.Reader) (*Scene, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &ConfigError{Scene: name, Field: "document", Reason: err.Error(), Err: ErrMalformed}
	}

	def := Definition{
		Width:    doc.Base.Width,
		Height:   doc.Base.Height,
		Pixels:   doc.Base.Pixels,
		Palettes: doc.Palettes,
		Timeline: make(map[uint32]string, len(doc.Timeline)),
	}
	for key, palette := range doc.Timeline {
		secs, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return nil, &ConfigError{Scene: name, Field: fmt.Sprintf("timeline[%q]", key), Reason: "not a number", Err: ErrTimeKey}
		}
		def.Timeline[uint32(secs)] = palette
	}

	return Build(name, def)
}

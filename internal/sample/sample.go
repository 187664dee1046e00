// Package sample provides bundled demo receipts so the app can be tried
// without uploading anything.
package sample

import (
	"embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed samples.json
var samplesFS embed.FS

// Receipt is one bundled demo receipt
type Receipt struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Store       string `json:"store"`
	Description string `json:"description"`
	ImageBase64 string `json:"image_base64"`
}

// ImagePNG decodes the bundled image payload
func (r *Receipt) ImagePNG() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(r.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sample image %s: %w", r.ID, err)
	}
	return data, nil
}

var (
	loadOnce sync.Once
	loaded   []Receipt
	loadErr  error
)

func load() ([]Receipt, error) {
	loadOnce.Do(func() {
		data, err := samplesFS.ReadFile("samples.json")
		if err != nil {
			loadErr = fmt.Errorf("failed to read bundled samples: %w", err)
			return
		}
		if err := json.Unmarshal(data, &loaded); err != nil {
			loadErr = fmt.Errorf("failed to parse bundled samples: %w", err)
		}
	})
	return loaded, loadErr
}

// All returns every bundled receipt in feed order
func All() ([]Receipt, error) {
	return load()
}

// ByID returns the bundled receipt with the given id
func ByID(id string) (*Receipt, error) {
	receipts, err := load()
	if err != nil {
		return nil, err
	}
	for i := range receipts {
		if receipts[i].ID == id {
			return &receipts[i], nil
		}
	}
	return nil, fmt.Errorf("unknown sample receipt: %s", id)
}

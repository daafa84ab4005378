// Package mocks provides an in-process Helioviewer API for tests.
package mocks

import (
	"bytes"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
)

// Helioviewer serves /v2/getClosestImage/ and /v2/downloadImage/.
// The image id for a source is sourceId*1000, so downloads can be traced
// back to the channel that requested them.
type Helioviewer struct {
	Server *httptest.Server

	// Image is the body returned by downloadImage
	Image []byte

	mu             sync.RWMutex
	noImage        map[int]bool
	brokenDownload map[int]bool

	lookups   atomic.Int32
	downloads atomic.Int32
}

// NewHelioviewer starts a mock server that is closed when the test ends
func NewHelioviewer(t testing.TB) *Helioviewer {
	t.Helper()

	hv := &Helioviewer{
		Image:          JPEG(t, 8, 8),
		noImage:        make(map[int]bool),
		brokenDownload: make(map[int]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/getClosestImage/", hv.handleClosestImage)
	mux.HandleFunc("/v2/downloadImage/", hv.handleDownload)

	hv.Server = httptest.NewServer(mux)
	t.Cleanup(hv.Server.Close)
	return hv
}

// URL returns the base URL of the mock server
func (hv *Helioviewer) URL() string {
	return hv.Server.URL
}

// SetNoImage makes lookups for sourceID answer with a null id
func (hv *Helioviewer) SetNoImage(sourceID int) {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	hv.noImage[sourceID] = true
}

// SetBrokenDownload makes downloads of images from sourceID answer 500
func (hv *Helioviewer) SetBrokenDownload(sourceID int) {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	hv.brokenDownload[sourceID] = true
}

// Lookups returns the number of getClosestImage requests served
func (hv *Helioviewer) Lookups() int {
	return int(hv.lookups.Load())
}

// Downloads returns the number of downloadImage requests served
func (hv *Helioviewer) Downloads() int {
	return int(hv.downloads.Load())
}

// Requests returns the total number of API requests served
func (hv *Helioviewer) Requests() int {
	return hv.Lookups() + hv.Downloads()
}

func (hv *Helioviewer) handleClosestImage(w http.ResponseWriter, r *http.Request) {
	hv.lookups.Add(1)

	sourceID, err := strconv.Atoi(r.URL.Query().Get("sourceId"))
	if err != nil {
		http.Error(w, "invalid sourceId", http.StatusBadRequest)
		return
	}

	hv.mu.RLock()
	missing := hv.noImage[sourceID]
	hv.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if missing {
		w.Write([]byte(`{"id": null, "error": "No images available"}`))
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":          strconv.Itoa(sourceID * 1000),
		"date":        r.URL.Query().Get("date"),
		"observatory": "SDO",
		"instrument":  "AIA",
		"detector":    "AIA",
	})
}

func (hv *Helioviewer) handleDownload(w http.ResponseWriter, r *http.Request) {
	hv.downloads.Add(1)

	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	hv.mu.RLock()
	broken := hv.brokenDownload[id/1000]
	hv.mu.RUnlock()

	if broken {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(hv.Image)
}

// JPEG encodes a solid w×h image
func JPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 255, G: 160, B: 0, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

package storage

import "testing"

func TestGetContentType(t *testing.T) {
	tests := map[string]string{
		"20140101_120000_AIA_171.jpg": "image/jpeg",
		"image.JPEG":                  "image/jpeg",
		"image.png":                   "image/png",
		"image.gif":                   "image/gif",
		"image.jp2":                   "image/jp2",
		"failures.json":               "application/json",
		"notes.txt":                   "text/plain",
		"noext":                       "application/octet-stream",
	}
	for name, want := range tests {
		if got := GetContentType(name); got != want {
			t.Errorf("GetContentType(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestNormalizePrefix(t *testing.T) {
	tests := map[string]string{
		"":          "",
		"/":         "",
		"aia":       "aia/",
		"/aia/raw/": "aia/raw/",
	}
	for in, want := range tests {
		if got := normalizePrefix(in); got != want {
			t.Errorf("normalizePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

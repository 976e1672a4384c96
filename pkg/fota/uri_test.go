package fota

import (
	"strings"
	"testing"

	"github.com/fota-tools/fotactl/pkg/errors"
)

func TestParseURI(t *testing.T) {
	longHost := strings.Repeat("h", MaxHostLen)
	longPath := strings.Repeat("p", MaxPathLen)

	tests := []struct {
		name     string
		uri      string
		wantHost string
		wantPath string
		wantErr  error
	}{
		{
			name:     "https with nested path",
			uri:      "https://example.com/path/to/image.bin",
			wantHost: "example.com",
			wantPath: "path/to/image.bin",
		},
		{
			name:     "s3 bucket and key",
			uri:      "s3://firmware-bucket/releases/v2/app.bin",
			wantHost: "firmware-bucket",
			wantPath: "releases/v2/app.bin",
		},
		{
			name:     "host with port",
			uri:      "http://10.0.0.5:8080/fw.bin",
			wantHost: "10.0.0.5:8080",
			wantPath: "fw.bin",
		},
		{
			name:     "empty path is allowed",
			uri:      "https://example.com/",
			wantHost: "example.com",
			wantPath: "",
		},
		{
			name:     "host at capacity minus one",
			uri:      "https://" + longHost[:MaxHostLen-1] + "/fw.bin",
			wantHost: longHost[:MaxHostLen-1],
			wantPath: "fw.bin",
		},
		{
			name:    "no scheme separator",
			uri:     "noscheme",
			wantErr: errors.ErrValidation,
		},
		{
			name:    "no path separator",
			uri:     "scheme://onlyhost",
			wantErr: errors.ErrValidation,
		},
		{
			name:    "empty host",
			uri:     "https:///fw.bin",
			wantErr: errors.ErrValidation,
		},
		{
			name:    "host at capacity",
			uri:     "https://" + longHost + "/fw.bin",
			wantErr: errors.ErrResource,
		},
		{
			name:    "path at capacity",
			uri:     "https://example.com/" + longPath,
			wantErr: errors.ErrResource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, path, err := ParseURI(tt.uri)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseURI(%q) error = %v, want %v", tt.uri, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseURI(%q) unexpected error: %v", tt.uri, err)
			}
			if host != tt.wantHost {
				t.Errorf("host = %q, want %q", host, tt.wantHost)
			}
			if path != tt.wantPath {
				t.Errorf("path = %q, want %q", path, tt.wantPath)
			}
		})
	}
}

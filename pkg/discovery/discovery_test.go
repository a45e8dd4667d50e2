package discovery

import (
	"errors"
	"strings"
	"testing"
)

func TestKMSTXT_Validate(t *testing.T) {
	tests := []struct {
		name    string
		txt     KMSTXT
		wantErr error
	}{
		{
			name: "valid with name",
			txt:  KMSTXT{Name: "field-kms", Version: 1},
		},
		{
			name: "valid empty name",
			txt:  KMSTXT{Version: 1},
		},
		{
			name: "valid zero version",
			txt:  KMSTXT{Name: "field-kms"},
		},
		{
			name:    "name too long",
			txt:     KMSTXT{Name: strings.Repeat("x", maxNameLength+1)},
			wantErr: ErrInvalidServiceName,
		},
		{
			name:    "negative version",
			txt:     KMSTXT{Version: -1},
			wantErr: ErrInvalidProtocolVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.txt.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestKMSTXT_Encode(t *testing.T) {
	tests := []struct {
		name string
		txt  KMSTXT
		want []string
	}{
		{
			name: "version and name",
			txt:  KMSTXT{Name: "field-kms", Version: 2},
			want: []string{"pv=2", "nm=field-kms"},
		},
		{
			name: "zero version defaults to protocol version",
			txt:  KMSTXT{Name: "field-kms"},
			want: []string{"pv=1", "nm=field-kms"},
		},
		{
			name: "empty name omitted",
			txt:  KMSTXT{Version: 1},
			want: []string{"pv=1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.txt.Encode()
			if len(got) != len(tt.want) {
				t.Fatalf("Encode() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Encode()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseTXT(t *testing.T) {
	records := ParseTXT([]string{"pv=1", "nm=field-kms", "flag", "empty="})

	if records["pv"] != "1" {
		t.Errorf("records[pv] = %q, want %q", records["pv"], "1")
	}
	if records["nm"] != "field-kms" {
		t.Errorf("records[nm] = %q, want %q", records["nm"], "field-kms")
	}
	if v, ok := records["flag"]; !ok || v != "" {
		t.Errorf("records[flag] = %q, %v, want empty value present", v, ok)
	}
	if v, ok := records["empty"]; !ok || v != "" {
		t.Errorf("records[empty] = %q, %v, want empty value present", v, ok)
	}
}

func TestTXTFromMap(t *testing.T) {
	txt := TXTFromMap(map[string]string{
		"pv": "3",
		"nm": "field-kms",
	})

	if txt.Version != 3 {
		t.Errorf("Version = %d, want 3", txt.Version)
	}
	if txt.Name != "field-kms" {
		t.Errorf("Name = %q, want %q", txt.Name, "field-kms")
	}
}

func TestTXTFromMap_Defaults(t *testing.T) {
	txt := TXTFromMap(map[string]string{})

	if txt.Version != 0 {
		t.Errorf("Version = %d, want 0", txt.Version)
	}
	if txt.Name != "" {
		t.Errorf("Name = %q, want empty", txt.Name)
	}

	// Non-numeric version falls back to zero rather than failing.
	txt = TXTFromMap(map[string]string{"pv": "abc"})
	if txt.Version != 0 {
		t.Errorf("Version = %d, want 0 for non-numeric pv", txt.Version)
	}
}

func TestTXTRoundTrip(t *testing.T) {
	original := KMSTXT{Name: "relay-site-kms", Version: 1}

	parsed := TXTFromMap(ParseTXT(original.Encode()))

	if parsed.Name != original.Name {
		t.Errorf("round-trip Name = %q, want %q", parsed.Name, original.Name)
	}
	if parsed.Version != original.Version {
		t.Errorf("round-trip Version = %d, want %d", parsed.Version, original.Version)
	}
}

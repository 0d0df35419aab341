package format

import "testing"

func TestSniffSignatures(t *testing.T) {
	for _, tt := range []struct {
		name string
		data []byte
		want Tag
	}{
		{"mp4 ftyp", []byte{0x00, 0x00, 0x00, 0x18, 0x66, 0x74, 0x79, 0x70, 0x69, 0x73, 0x6F, 0x6D}, MP4},
		{"webm ebml", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x9F, 0x42, 0x86, 0x81}, WebM},
		{"ogg", []byte{0x4F, 0x67, 0x67, 0x53, 0x00, 0x02, 0x00, 0x00}, OGG},
		{"wav riff", []byte{0x52, 0x49, 0x46, 0x46, 0x24, 0x08, 0x00, 0x00}, WAV},
		{"short wav prefix", []byte{0x52, 0x49, 0x46, 0x46, 0x01}, WAV},
		{"garbage", []byte{0xDE, 0xAD, 0xBE, 0xEF, 0xDE, 0xAD, 0xBE, 0xEF}, MP4},
		{"empty", nil, MP4},
		{"too short", []byte{0x1A, 0x45}, MP4},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sniff(tt.data); got != tt.want {
				t.Errorf("Sniff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSniffDeterministic(t *testing.T) {
	data := []byte{0x4F, 0x67, 0x67, 0x53, 0x00, 0x02, 0x00, 0x00}
	first := Sniff(data)
	for i := 0; i < 100; i++ {
		if got := Sniff(data); got != first {
			t.Fatalf("Sniff changed between calls: %v then %v", first, got)
		}
	}
}

func TestSniffPriorityFtypWins(t *testing.T) {
	// A RIFF prefix with ftyp at offset 4 must resolve as MP4 — the
	// ftyp check runs first.
	data := []byte{0x52, 0x49, 0x46, 0x46, 0x66, 0x74, 0x79, 0x70}
	if got := Sniff(data); got != MP4 {
		t.Errorf("Sniff() = %v, want MP4", got)
	}
}

func TestMIMERoundTrip(t *testing.T) {
	for _, tag := range []Tag{MP4, WebM, OGG, WAV} {
		if got := FromMIME(tag.MIME()); got != tag {
			t.Errorf("FromMIME(%q) = %v, want %v", tag.MIME(), got, tag)
		}
	}
}

func TestFromMIMEUnrecognized(t *testing.T) {
	for _, mime := range []string{"", "audio/flac", "text/plain", "application/octet-stream"} {
		if got := FromMIME(mime); got != Unknown {
			t.Errorf("FromMIME(%q) = %v, want Unknown", mime, got)
		}
	}
}

func TestTagStrings(t *testing.T) {
	for _, tt := range []struct {
		tag  Tag
		str  string
		ext  string
		mime string
	}{
		{MP4, "mp4", "m4a", "audio/mp4"},
		{WebM, "webm", "webm", "audio/webm"},
		{OGG, "ogg", "ogg", "audio/ogg"},
		{WAV, "wav", "wav", "audio/wav"},
		{Unknown, "unknown", "bin", ""},
	} {
		if tt.tag.String() != tt.str {
			t.Errorf("String() = %q, want %q", tt.tag.String(), tt.str)
		}
		if tt.tag.Ext() != tt.ext {
			t.Errorf("Ext() = %q, want %q", tt.tag.Ext(), tt.ext)
		}
		if tt.tag.MIME() != tt.mime {
			t.Errorf("MIME() = %q, want %q", tt.tag.MIME(), tt.mime)
		}
	}
}

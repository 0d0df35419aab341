// Package format identifies audio container formats from raw bytes.
//
// Recorder backends and browsers routinely mislabel what they produce
// (most notably m4a recordings tagged as webm), so the byte content is
// the only trusted source of format information. Sniff is consulted both
// when a recording is finalized and again before every playback.
package format

import "bytes"

// Tag is the closed set of recognized audio containers.
type Tag int

const (
	Unknown Tag = iota
	MP4
	WebM
	OGG
	WAV
)

var (
	sigFtyp = []byte{0x66, 0x74, 0x79, 0x70} // "ftyp" at offset 4
	sigEBML = []byte{0x1A, 0x45, 0xDF, 0xA3}
	sigOggS = []byte{0x4F, 0x67, 0x67, 0x53} // "OggS"
	sigRIFF = []byte{0x52, 0x49, 0x46, 0x46} // "RIFF"
)

// Sniff returns the container format of b. It never fails: when no
// signature matches (or b is too short to hold one) it returns MP4,
// the most broadly decodable default. Only the first 8 bytes are read.
func Sniff(b []byte) Tag {
	if len(b) >= 8 && bytes.Equal(b[4:8], sigFtyp) {
		return MP4
	}
	if len(b) >= 4 {
		switch {
		case bytes.Equal(b[:4], sigEBML):
			return WebM
		case bytes.Equal(b[:4], sigOggS):
			return OGG
		case bytes.Equal(b[:4], sigRIFF):
			return WAV
		}
	}
	return MP4
}

// MIME returns the tag's MIME type, or "" for Unknown.
func (t Tag) MIME() string {
	switch t {
	case MP4:
		return "audio/mp4"
	case WebM:
		return "audio/webm"
	case OGG:
		return "audio/ogg"
	case WAV:
		return "audio/wav"
	}
	return ""
}

// Ext returns the file extension used when naming uploads.
func (t Tag) Ext() string {
	switch t {
	case MP4:
		return "m4a"
	case WebM:
		return "webm"
	case OGG:
		return "ogg"
	case WAV:
		return "wav"
	}
	return "bin"
}

// FromMIME maps a declared MIME type back to a Tag. Unrecognized or
// empty values map to Unknown; declared types are advisory only and
// must never gate decode decisions.
func FromMIME(mime string) Tag {
	switch mime {
	case "audio/mp4", "audio/m4a", "audio/x-m4a", "audio/aac":
		return MP4
	case "audio/webm", "video/webm":
		return WebM
	case "audio/ogg", "application/ogg", "audio/opus":
		return OGG
	case "audio/wav", "audio/wave", "audio/x-wav":
		return WAV
	}
	return Unknown
}

func (t Tag) String() string {
	switch t {
	case MP4:
		return "mp4"
	case WebM:
		return "webm"
	case OGG:
		return "ogg"
	case WAV:
		return "wav"
	}
	return "unknown"
}

package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	for _, tt := range []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"single byte", []byte{0x00}},
		{"text", []byte("patient stable, follow up in two weeks")},
		{"binary", []byte{0xFF, 0x00, 0xDE, 0xAD, 0xBE, 0xEF, 0x7F, 0x80}},
		{"wav prefix", []byte{0x52, 0x49, 0x46, 0x46, 0x24, 0x08, 0x00, 0x00}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(Encode(tt.data))
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Errorf("round trip = %v, want %v", got, tt.data)
			}
		})
	}
}

func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		data := make([]byte, rng.Intn(4096))
		rng.Read(data)
		got, err := Decode(Encode(data))
		if err != nil {
			t.Fatalf("Decode error on %d-byte buffer: %v", len(data), err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("round trip mismatch on %d-byte buffer", len(data))
		}
	}
}

func TestDecodeCorrupt(t *testing.T) {
	for _, input := range []string{"not base64!!", "abc\x00def", "a", "====", "aGVsbG8"} {
		if _, err := Decode(input); !errors.Is(err, ErrCorruptEncoding) {
			t.Errorf("Decode(%q) error = %v, want ErrCorruptEncoding", input, err)
		}
	}
}

func TestAudioDataMarshalJSON(t *testing.T) {
	b, err := json.Marshal(AudioData("hello world"))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(b) != `"aGVsbG8gd29ybGQ="` {
		t.Errorf("Marshal = %s, want %q", b, `"aGVsbG8gd29ybGQ="`)
	}
}

func TestAudioDataUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{name: "valid", input: `"aGVsbG8gd29ybGQ="`, want: []byte("hello world")},
		{name: "empty", input: `""`, want: []byte{}},
		{name: "null", input: `null`, want: nil},
		{name: "number", input: `123`, wantErr: true},
		{name: "corrupt", input: `"!!!"`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var d AudioData
			err := json.Unmarshal([]byte(tc.input), &d)
			if tc.wantErr {
				if !errors.Is(err, ErrCorruptEncoding) {
					t.Errorf("error = %v, want ErrCorruptEncoding", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}
			if string(d) != string(tc.want) {
				t.Errorf("Unmarshal = %v, want %v", d, tc.want)
			}
		})
	}
}

func TestAudioDataInStruct(t *testing.T) {
	type wire struct {
		ID    string    `json:"id"`
		Audio AudioData `json:"audio"`
	}
	msg := wire{ID: "note-1", Audio: AudioData{0x52, 0x49, 0x46, 0x46}}
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var restored wire
	if err := json.Unmarshal(b, &restored); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if !bytes.Equal(restored.Audio, msg.Audio) {
		t.Errorf("Audio = %v, want %v", restored.Audio, msg.Audio)
	}
}

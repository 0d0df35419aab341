package playback

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"dicta/format"
)

func decode(data []byte, tag format.Tag) (Clip, error) {
	switch tag {
	case format.WAV:
		return decodeWAV(data)
	case format.OGG:
		return decodeOGG(data)
	}
	return Clip{}, ErrUnsupported
}

// decodeWAV walks the RIFF chunks rather than assuming the canonical
// 44-byte layout, so files with LIST or fact chunks still play.
func decodeWAV(data []byte) (Clip, error) {
	if len(data) < 12 || !bytes.Equal(data[:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return Clip{}, fmt.Errorf("playback: not a RIFF/WAVE file")
	}

	var (
		clip    Clip
		haveFmt bool
		pcm     []byte
	)
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return Clip{}, fmt.Errorf("playback: short fmt chunk")
			}
			audioFormat := binary.LittleEndian.Uint16(data[body:])
			channels := binary.LittleEndian.Uint16(data[body+2:])
			rate := binary.LittleEndian.Uint32(data[body+4:])
			bits := binary.LittleEndian.Uint16(data[body+14:])
			if audioFormat != 1 || bits != 16 {
				return Clip{}, fmt.Errorf("playback: unsupported wav encoding (format %d, %d bit)", audioFormat, bits)
			}
			if channels == 0 || rate == 0 {
				return Clip{}, fmt.Errorf("playback: invalid wav format chunk")
			}
			clip.Channels = int(channels)
			clip.SampleRate = int(rate)
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
		}
		pos = body + size
		if size%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}
	if !haveFmt {
		return Clip{}, fmt.Errorf("playback: wav missing fmt chunk")
	}

	clip.Samples = make([]int16, len(pcm)/2)
	for i := range clip.Samples {
		clip.Samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return clip, nil
}

func decodeOGG(data []byte) (Clip, error) {
	dec, err := oggvorbis.NewReader(bytes.NewReader(data))
	if err != nil {
		return Clip{}, fmt.Errorf("playback: open vorbis: %w", err)
	}

	clip := Clip{
		SampleRate: dec.SampleRate(),
		Channels:   dec.Channels(),
	}
	buf := make([]float32, 8192)
	for {
		n, err := dec.Read(buf)
		for _, f := range buf[:n] {
			clip.Samples = append(clip.Samples, float32ToInt16(f))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Clip{}, fmt.Errorf("playback: read vorbis: %w", err)
		}
	}
	return clip, nil
}

func float32ToInt16(f float32) int16 {
	if f > 1 {
		f = 1
	} else if f < -1 {
		f = -1
	}
	return int16(f * 32767)
}

package wav

import (
	"encoding/binary"
	"fmt"
	"math"
)

// HeaderSize is the fixed RIFF/WAVE header length produced by Encode.
const HeaderSize = 44

// Encode converts mono 32-bit float samples into a complete WAV file:
// a 44-byte RIFF header followed by 16-bit little-endian PCM data.
// Samples are clamped to [-1, 1] before quantization.
func Encode(samples []float32, sampleRate int) []byte {
	n := len(samples)
	dataLen := 2 * n
	out := make([]byte, HeaderSize+dataLen)

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataLen))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], 1) // mono
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(out[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(out[34:36], 16) // bits per sample
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataLen))

	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[HeaderSize+2*i:], uint16(quantize(s)))
	}
	return out
}

// quantize maps a float sample to int16 with the asymmetric scale used by
// the widget: negative values scale by 32768, non-negative by 32767.
func quantize(s float32) int16 {
	if s < -1 {
		s = -1
	} else if s > 1 {
		s = 1
	}
	if s < 0 {
		return int16(math.Round(float64(s) * 32768))
	}
	return int16(math.Round(float64(s) * 32767))
}

// Info describes a decoded WAV header.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	DataLen    int
}

// Decode parses a WAV file produced by Encode and returns the header info
// plus the PCM payload converted back to float samples.
func Decode(b []byte) (Info, []float32, error) {
	if len(b) < HeaderSize {
		return Info{}, nil, fmt.Errorf("wav: file too short (%d bytes)", len(b))
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return Info{}, nil, fmt.Errorf("wav: missing RIFF/WAVE magic")
	}
	if string(b[36:40]) != "data" {
		return Info{}, nil, fmt.Errorf("wav: missing data chunk")
	}
	info := Info{
		SampleRate: int(binary.LittleEndian.Uint32(b[24:28])),
		Channels:   int(binary.LittleEndian.Uint16(b[22:24])),
		BitDepth:   int(binary.LittleEndian.Uint16(b[34:36])),
		DataLen:    int(binary.LittleEndian.Uint32(b[40:44])),
	}
	if info.DataLen != len(b)-HeaderSize {
		return info, nil, fmt.Errorf("wav: declared data length %d does not match payload %d", info.DataLen, len(b)-HeaderSize)
	}
	samples := make([]float32, info.DataLen/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(b[HeaderSize+2*i:]))
		if v < 0 {
			samples[i] = float32(v) / 32768
		} else {
			samples[i] = float32(v) / 32767
		}
	}
	return info, samples, nil
}

package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// wavHeaderSize is the size of a canonical PCM WAV header
const wavHeaderSize = 44

// WAVInfo describes the format of a decoded WAV file
type WAVInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	DataBytes     int
}

// EncodeWAV wraps mono 16-bit samples in a canonical WAV container
func EncodeWAV(samples []int16, sampleRate int) []byte {
	dataSize := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+dataSize))

	// RIFF chunk
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	// fmt chunk: PCM, mono, 16-bit
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // channels
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2)) // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))           // bits per sample

	// data chunk
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	for _, sample := range samples {
		binary.Write(buf, binary.LittleEndian, sample)
	}

	return buf.Bytes()
}

// DecodeWAV extracts mono 16-bit PCM samples and the sample rate from WAV data.
// Only uncompressed 16-bit mono PCM is accepted; anything else is an error.
func DecodeWAV(data []byte) ([]int16, int, error) {
	info, pcm, err := parseWAV(data)
	if err != nil {
		return nil, 0, err
	}

	if info.Channels != 1 {
		return nil, 0, fmt.Errorf("unsupported channel count %d (mono required)", info.Channels)
	}

	samples, err := BytesToSamples(pcm)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid PCM data: %w", err)
	}
	return samples, info.SampleRate, nil
}

// ValidateWAV checks that data is a decodable 16-bit mono PCM WAV file
func ValidateWAV(data []byte) error {
	_, _, err := DecodeWAV(data)
	return err
}

// GetWAVInfo returns format information without copying sample data
func GetWAVInfo(data []byte) (*WAVInfo, error) {
	info, _, err := parseWAV(data)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// GetWAVDuration returns the play duration of a WAV file
func GetWAVDuration(data []byte) (time.Duration, error) {
	info, _, err := parseWAV(data)
	if err != nil {
		return 0, err
	}
	bytesPerSecond := info.SampleRate * info.Channels * info.BitsPerSample / 8
	if bytesPerSecond == 0 {
		return 0, fmt.Errorf("invalid byte rate")
	}
	seconds := float64(info.DataBytes) / float64(bytesPerSecond)
	return time.Duration(seconds * float64(time.Second)), nil
}

// parseWAV walks the RIFF chunk list and returns format info plus raw PCM data.
// Unknown chunks (LIST, fact, etc.) are skipped; chunk order is not assumed.
func parseWAV(data []byte) (*WAVInfo, []byte, error) {
	if len(data) < 12 {
		return nil, nil, fmt.Errorf("file too short for WAV header (%d bytes)", len(data))
	}
	if string(data[0:4]) != "RIFF" {
		return nil, nil, fmt.Errorf("missing RIFF marker")
	}
	if string(data[8:12]) != "WAVE" {
		return nil, nil, fmt.Errorf("missing WAVE marker")
	}

	var info *WAVInfo
	var pcm []byte

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			return nil, nil, fmt.Errorf("chunk %q overruns file", chunkID)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, nil, fmt.Errorf("fmt chunk too short (%d bytes)", chunkSize)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return nil, nil, fmt.Errorf("unsupported audio format %d (PCM required)", audioFormat)
			}
			bits := int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			if bits != 16 {
				return nil, nil, fmt.Errorf("unsupported bit depth %d (16-bit required)", bits)
			}
			info = &WAVInfo{
				Channels:      int(binary.LittleEndian.Uint16(data[body+2 : body+4])),
				SampleRate:    int(binary.LittleEndian.Uint32(data[body+4 : body+8])),
				BitsPerSample: bits,
			}
		case "data":
			pcm = data[body : body+chunkSize]
		}

		// Chunks are word-aligned; odd sizes carry a pad byte
		offset = body + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}

	if info == nil {
		return nil, nil, fmt.Errorf("missing fmt chunk")
	}
	if pcm == nil {
		return nil, nil, fmt.Errorf("missing data chunk")
	}
	info.DataBytes = len(pcm)

	return info, pcm, nil
}

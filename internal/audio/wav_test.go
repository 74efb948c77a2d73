package audio

import (
	"testing"
	"time"
)

func TestEncodeDecodeWAV(t *testing.T) {
	samples := []int16{0, 1000, -1000, 32767, -32768, 42}

	data := EncodeWAV(samples, SampleRate)
	if len(data) != wavHeaderSize+len(samples)*2 {
		t.Errorf("Expected %d bytes, got %d", wavHeaderSize+len(samples)*2, len(data))
	}

	decoded, rate, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if rate != SampleRate {
		t.Errorf("Expected sample rate %d, got %d", SampleRate, rate)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(decoded))
	}
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Errorf("Expected sample %d at index %d, got %d", samples[i], i, decoded[i])
		}
	}
}

func TestDecodeWAV_TooShort(t *testing.T) {
	if _, _, err := DecodeWAV([]byte("RIFF")); err == nil {
		t.Error("Expected error for truncated file")
	}
}

func TestDecodeWAV_BadMarkers(t *testing.T) {
	data := EncodeWAV([]int16{1, 2, 3}, SampleRate)

	bad := make([]byte, len(data))
	copy(bad, data)
	copy(bad[0:4], "JUNK")
	if _, _, err := DecodeWAV(bad); err == nil {
		t.Error("Expected error for missing RIFF marker")
	}

	copy(bad, data)
	copy(bad[8:12], "JUNK")
	if _, _, err := DecodeWAV(bad); err == nil {
		t.Error("Expected error for missing WAVE marker")
	}
}

func TestDecodeWAV_NonPCM(t *testing.T) {
	data := EncodeWAV([]int16{1, 2, 3}, SampleRate)
	// Overwrite the audio format field (offset 20) with 3 = IEEE float
	data[20] = 3
	if _, _, err := DecodeWAV(data); err == nil {
		t.Error("Expected error for non-PCM format")
	}
}

func TestDecodeWAV_Stereo(t *testing.T) {
	data := EncodeWAV([]int16{1, 2, 3, 4}, SampleRate)
	// Overwrite the channel count field (offset 22)
	data[22] = 2
	if _, _, err := DecodeWAV(data); err == nil {
		t.Error("Expected error for stereo file")
	}
}

func TestValidateWAV(t *testing.T) {
	good := EncodeWAV([]int16{1, 2, 3}, SampleRate)
	if err := ValidateWAV(good); err != nil {
		t.Errorf("ValidateWAV failed on valid file: %v", err)
	}

	if err := ValidateWAV([]byte("not a wav file")); err == nil {
		t.Error("Expected error for invalid file")
	}
}

func TestGetWAVInfo(t *testing.T) {
	samples := make([]int16, 8000)
	data := EncodeWAV(samples, 8000)

	info, err := GetWAVInfo(data)
	if err != nil {
		t.Fatalf("GetWAVInfo failed: %v", err)
	}
	if info.SampleRate != 8000 {
		t.Errorf("Expected sample rate 8000, got %d", info.SampleRate)
	}
	if info.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", info.Channels)
	}
	if info.BitsPerSample != 16 {
		t.Errorf("Expected 16 bits per sample, got %d", info.BitsPerSample)
	}
	if info.DataBytes != 16000 {
		t.Errorf("Expected 16000 data bytes, got %d", info.DataBytes)
	}
}

func TestGetWAVDuration(t *testing.T) {
	// One second of audio
	samples := make([]int16, SampleRate)
	data := EncodeWAV(samples, SampleRate)

	duration, err := GetWAVDuration(data)
	if err != nil {
		t.Fatalf("GetWAVDuration failed: %v", err)
	}
	if duration != time.Second {
		t.Errorf("Expected duration 1s, got %v", duration)
	}
}

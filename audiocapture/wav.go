package audiocapture

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// TargetSampleRate is the rate written to transcription input files.
const TargetSampleRate = 16000

// SaveWAV down-mixes samples to mono, resamples them to 16 kHz and
// writes 16-bit PCM WAV to path.
func SaveWAV(samples []float32, sampleRate, channels int, path string) error {
	mono := DownmixMono(samples, channels)
	mono = Resample(mono, sampleRate, TargetSampleRate)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	if err := encodeWAV(f, mono); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}

func encodeWAV(f *os.File, mono []float32) error {
	enc := wav.NewEncoder(f, TargetSampleRate, 16, 1, 1)

	data := make([]int, len(mono))
	for i, s := range mono {
		data[i] = int(int16(clampUnit(s) * 32767))
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: TargetSampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

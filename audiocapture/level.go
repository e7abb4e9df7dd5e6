package audiocapture

import (
	"math"
	"time"
)

// levelWindow is the analysis window for VoicedDuration.
const levelWindow = 20 * time.Millisecond

// VoicedDuration returns how much of an interleaved recording has an RMS
// level above threshold, measured in fixed windows.
func VoicedDuration(samples []float32, sampleRate, channels int, threshold float32) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}

	window := int(int64(sampleRate)*int64(levelWindow)/int64(time.Second)) * channels
	if window <= 0 {
		window = channels
	}

	var voiced int
	for start := 0; start < len(samples); start += window {
		end := min(start+window, len(samples))
		if calculateRMS(samples[start:end]) > threshold {
			voiced += end - start
		}
	}

	frames := voiced / channels
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

// calculateRMS calculates the root mean square of audio samples.
func calculateRMS(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}

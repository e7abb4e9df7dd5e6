package audiocapture

import "math"

// DownmixMono averages each interleaved frame into a single sample.
// A trailing partial frame is averaged over the samples it has.
func DownmixMono(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}

	out := make([]float32, 0, (len(samples)+channels-1)/channels)
	for i := 0; i < len(samples); i += channels {
		end := min(i+channels, len(samples))
		var sum float32
		for _, s := range samples[i:end] {
			sum += s
		}
		out = append(out, sum/float32(end-i))
	}
	return out
}

// Resample converts mono samples from one rate to another by linear
// interpolation. Output length is ceil(len/ratio) where ratio is from/to.
func Resample(samples []float32, from, to int) []float32 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}

	ratio := float64(from) / float64(to)
	n := int(math.Ceil(float64(len(samples)) / ratio))
	out := make([]float32, n)
	last := len(samples) - 1

	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= last {
			out[i] = samples[last]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// clampUnit limits s to [-1, 1].
func clampUnit(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

// Package audiocapture records microphone input for dictation.
//
// Samples from the hardware callback are normalised to float32 in [-1, 1]
// and appended to a lock-protected buffer. A recording is drained exactly
// once by Stop and can then be written as 16 kHz mono WAV for
// transcription.
package audiocapture

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAlreadyRecording is returned when Start is called on an active recorder.
var ErrAlreadyRecording = errors.New("audiocapture: already recording")

// ErrNoInputDevice is returned when the system has no default input device.
var ErrNoInputDevice = errors.New("audiocapture: no default input device")

// Device describes an input device and the stream format it will deliver.
type Device struct {
	Name       string
	SampleRate int
	Channels   int
}

// Stream is an open input stream.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Backend talks to the platform audio system.
type Backend interface {
	// DefaultInput returns the default input device.
	// It returns ErrNoInputDevice when none is present.
	DefaultInput() (Device, error)

	// Open opens a stream at the device's native format that writes
	// interleaved samples into sink from the audio thread.
	Open(dev Device, sink *Sink) (Stream, error)
}

// Recorder captures audio from the default input device.
type Recorder struct {
	backend Backend
	device  Device
	sink    *Sink

	mu     sync.Mutex
	stream Stream
}

// New creates a Recorder bound to the backend's default input device.
func New(backend Backend) (*Recorder, error) {
	dev, err := backend.DefaultInput()
	if err != nil {
		return nil, err
	}
	if dev.SampleRate <= 0 || dev.Channels <= 0 {
		return nil, fmt.Errorf("audiocapture: invalid device format %d Hz, %d channels", dev.SampleRate, dev.Channels)
	}
	return &Recorder{
		backend: backend,
		device:  dev,
		sink:    &Sink{},
	}, nil
}

// Start clears the buffer and begins recording.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream != nil {
		return ErrAlreadyRecording
	}

	r.sink.reset()

	stream, err := r.backend.Open(r.device, r.sink)
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("start input stream: %w", err)
	}

	r.stream = stream
	return nil
}

// Stop halts the stream and returns everything recorded since Start.
// The buffer is left empty. Stop on an idle recorder returns nil.
func (r *Recorder) Stop() []float32 {
	r.mu.Lock()
	stream := r.stream
	r.stream = nil
	r.mu.Unlock()

	if stream == nil {
		return nil
	}

	// Stop before draining so no callback appends after the drain.
	_ = stream.Stop()
	_ = stream.Close()

	return r.sink.drain()
}

// IsRecording reports whether a stream is open.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream != nil
}

// SampleRate returns the native sample rate of the capture stream.
func (r *Recorder) SampleRate() int { return r.device.SampleRate }

// Channels returns the interleaved channel count of the capture stream.
func (r *Recorder) Channels() int { return r.device.Channels }

// DeviceName returns the input device name.
func (r *Recorder) DeviceName() string { return r.device.Name }

// SaveWAV writes samples captured by this recorder as 16 kHz mono WAV.
func (r *Recorder) SaveWAV(samples []float32, path string) error {
	return SaveWAV(samples, r.device.SampleRate, r.device.Channels, path)
}

// Sink receives samples from the audio thread. Every write normalises to
// float32 in [-1, 1] and holds the lock only for the append.
type Sink struct {
	mu   sync.Mutex
	data []float32
}

// WriteFloat32 appends float samples unchanged.
func (s *Sink) WriteFloat32(in []float32) {
	s.mu.Lock()
	s.data = append(s.data, in...)
	s.mu.Unlock()
}

// WriteInt16 appends signed 16-bit samples scaled by 1/32767.
func (s *Sink) WriteInt16(in []int16) {
	s.mu.Lock()
	for _, v := range in {
		s.data = append(s.data, float32(v)/32767)
	}
	s.mu.Unlock()
}

// WriteUint16 appends unsigned 16-bit samples re-centred around zero.
func (s *Sink) WriteUint16(in []uint16) {
	s.mu.Lock()
	for _, v := range in {
		s.data = append(s.data, float32((float64(v)-32767.5)/32767.5))
	}
	s.mu.Unlock()
}

// Len returns the number of buffered samples.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *Sink) drain() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.data
	s.data = nil
	return out
}

func (s *Sink) reset() {
	s.mu.Lock()
	s.data = s.data[:0]
	s.mu.Unlock()
}

package audiocapture

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// SampleFormat selects the sample type requested from the device.
type SampleFormat string

const (
	FormatFloat32 SampleFormat = "float32"
	FormatInt16   SampleFormat = "int16"
)

// ParseSampleFormat validates a format name. The empty string selects
// FormatFloat32.
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch f := SampleFormat(s); f {
	case "":
		return FormatFloat32, nil
	case FormatFloat32, FormatInt16:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported sample format %q", s)
	}
}

// PortAudio is a Backend on top of the PortAudio library.
type PortAudio struct {
	format          SampleFormat
	framesPerBuffer int
}

// NewPortAudio returns a PortAudio backend. A zero framesPerBuffer lets
// PortAudio choose the buffer size.
func NewPortAudio(format SampleFormat, framesPerBuffer int) *PortAudio {
	if format == "" {
		format = FormatFloat32
	}
	return &PortAudio{format: format, framesPerBuffer: framesPerBuffer}
}

func (p *PortAudio) DefaultInput() (Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return Device{}, fmt.Errorf("portaudio init: %w", err)
	}
	defer portaudio.Terminate()

	info, err := portaudio.DefaultInputDevice()
	if err != nil || info == nil || info.MaxInputChannels < 1 {
		return Device{}, ErrNoInputDevice
	}

	return Device{
		Name:       info.Name,
		SampleRate: int(info.DefaultSampleRate),
		Channels:   min(info.MaxInputChannels, 2),
	}, nil
}

func (p *PortAudio) Open(dev Device, sink *Sink) (Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, ErrNoInputDevice
	}

	params := portaudio.LowLatencyParameters(info, nil)
	params.Input.Channels = dev.Channels
	params.SampleRate = float64(dev.SampleRate)
	if p.framesPerBuffer > 0 {
		params.FramesPerBuffer = p.framesPerBuffer
	}

	var stream *portaudio.Stream
	switch p.format {
	case FormatInt16:
		stream, err = portaudio.OpenStream(params, func(in []int16) { sink.WriteInt16(in) })
	case FormatFloat32:
		stream, err = portaudio.OpenStream(params, func(in []float32) { sink.WriteFloat32(in) })
	default:
		err = fmt.Errorf("unsupported sample format %q", p.format)
	}
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	return &paStream{stream: stream}, nil
}

type paStream struct {
	stream *portaudio.Stream
}

func (s *paStream) Start() error { return s.stream.Start() }
func (s *paStream) Stop() error  { return s.stream.Stop() }

func (s *paStream) Close() error {
	err := s.stream.Close()
	portaudio.Terminate()
	return err
}

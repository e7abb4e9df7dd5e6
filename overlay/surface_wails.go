package overlay

import (
	"errors"

	"github.com/wailsapp/wails/v3/pkg/application"
)

// DefaultHeight is the strip height in points.
const DefaultHeight = 6

const stripHTML = `<!doctype html><html><body style="margin:0;background:transparent"></body></html>`

// WailsFactory creates strips as frameless, click-through windows along
// the bottom edge of the primary screen.
func WailsFactory(app *application.App, height int) SurfaceFactory {
	if height <= 0 {
		height = DefaultHeight
	}
	return func(c Colour) (Surface, error) {
		screen := app.Screen.GetPrimary()
		if screen == nil {
			return nil, errors.New("no primary screen")
		}
		bounds := screen.Bounds

		window := app.Window.NewWithOptions(application.WebviewWindowOptions{
			Name:              "voxkey-overlay",
			Width:             bounds.Width,
			Height:            height,
			X:                 bounds.X,
			Y:                 bounds.Y + bounds.Height - height,
			InitialPosition:   application.WindowXY,
			Frameless:         true,
			AlwaysOnTop:       true,
			DisableResize:     true,
			IgnoreMouseEvents: true,
			BackgroundType:    application.BackgroundTypeSolid,
			BackgroundColour:  toRGBA(c),
			HTML:              stripHTML,
			Mac: application.MacWindow{
				WindowLevel:   application.MacWindowLevelStatus,
				DisableShadow: true,
			},
		})
		window.Show()
		return &wailsSurface{window: window}, nil
	}
}

type wailsSurface struct {
	window *application.WebviewWindow
}

func (s *wailsSurface) SetColour(c Colour) {
	s.window.SetBackgroundColour(toRGBA(c))
}

func (s *wailsSurface) Close() {
	s.window.Close()
}

func toRGBA(c Colour) application.RGBA {
	return application.RGBA{Red: c.R, Green: c.G, Blue: c.B, Alpha: c.A}
}

// Package device drives the display controller's JSON API.
package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// ErrDeviceCallFailed wraps any failed request to the device.
var ErrDeviceCallFailed = errors.New("device call failed")

// Link provides a reachable base URL for the device.
type Link interface {
	Ensure(ctx context.Context) error
	BaseURL() string
}

// Options configures an Adapter.
type Options struct {
	// PresetID switches to a stored preset instead of selecting the effect
	// by index.
	PresetID *int
	// TextParamKey enables the legacy /win?<key>=<text> call for firmware
	// that takes text as a flat parameter.
	TextParamKey string
	// Brightness is the master brightness, 1..255. Zero means DefaultBrightness.
	Brightness int
}

// DefaultBrightness is used when Options.Brightness is unset; zero would
// blank the display.
const DefaultBrightness = 128

// Segment is a segment descriptor in a state update.
type Segment struct {
	ID      int      `json:"id"`
	Name    string   `json:"n"`
	Colors  [][3]int `json:"col"`
	Options []int    `json:"o"`  // [color mode, font size]
	O1      int      `json:"o1"` // color mode on older firmware
	C1      int      `json:"c1"`
	C2      int      `json:"c2"` // font size / scale
	Palette *int     `json:"pal,omitempty"`
	Effect  *int     `json:"fx,omitempty"`
}

// StateUpdate is the body of POST /json/state.
type StateUpdate struct {
	On         bool      `json:"on"`
	Brightness int       `json:"bri"`
	Segments   []Segment `json:"seg"`
}

type presetUpdate struct {
	Preset int `json:"ps"`
}

// NewStateUpdate builds a state update that shows text as Color 1 with the
// largest font. palette and effect are omitted when nil.
func NewStateUpdate(text string, color RGB, brightness int, palette, effect *int) StateUpdate {
	return StateUpdate{
		On:         true,
		Brightness: brightness,
		Segments: []Segment{{
			ID:      0,
			Name:    text,
			Colors:  [][3]int{{int(color.R), int(color.G), int(color.B)}},
			Options: []int{0, 255},
			O1:      0,
			C1:      0,
			C2:      255,
			Palette: palette,
			Effect:  effect,
		}},
	}
}

// Adapter turns a message into device state.
type Adapter struct {
	link     Link
	client   *http.Client
	opts     Options
	log      zerolog.Logger
	effects  *Catalog
	palettes *Catalog
}

// New creates a new Adapter.
func New(link Link, client *http.Client, opts Options, log zerolog.Logger) *Adapter {
	if opts.Brightness <= 0 {
		opts.Brightness = DefaultBrightness
	}

	return &Adapter{
		link:     link,
		client:   client,
		opts:     opts,
		log:      log,
		effects:  EffectCatalog(),
		palettes: PaletteCatalog(),
	}
}

// Apply shows text in color on the device. Every call is attempted once;
// the returned error joins the calls that failed so the caller can log them.
// A failed link check is logged and does not stop the attempt.
func (a *Adapter) Apply(ctx context.Context, text, color string) error {
	if err := a.link.Ensure(ctx); err != nil {
		a.log.Warn().Err(err).Msg("link ensure failed")
	}

	base := a.link.BaseURL()

	var (
		errs   []error
		effect *int
	)

	if a.opts.PresetID != nil {
		errs = append(errs, a.post(ctx, base+"/json/state", presetUpdate{Preset: *a.opts.PresetID}))
	} else {
		effect = a.resolve(ctx, a.effects, base)
	}

	palette := a.resolve(ctx, a.palettes, base)

	update := NewStateUpdate(text, ColorOrDefault(color), a.opts.Brightness, palette, effect)
	errs = append(errs, a.post(ctx, base+"/json/state", update))

	if key := a.opts.TextParamKey; key != "" {
		errs = append(errs, a.get(ctx, base+"/win?"+queryEscape(key)+"="+queryEscape(text)))
	}

	return errors.Join(errs...)
}

// Effects returns the effect catalog.
func (a *Adapter) Effects() *Catalog { return a.effects }

// Palettes returns the palette catalog.
func (a *Adapter) Palettes() *Catalog { return a.palettes }

// resolve looks up a catalog index. Failures skip the optimization.
func (a *Adapter) resolve(ctx context.Context, c *Catalog, base string) *int {
	idx, err := c.Resolve(ctx, a.client, base)
	if err != nil {
		a.log.Debug().Err(err).Str("catalog", c.path).Msg("catalog lookup skipped")
		return nil
	}
	return &idx
}

func (a *Adapter) post(ctx context.Context, target string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encode body: %w", ErrDeviceCallFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceCallFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return a.do(req)
}

func (a *Adapter) get(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceCallFailed, err)
	}
	return a.do(req)
}

func (a *Adapter) do(req *http.Request) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrDeviceCallFailed, req.Method, req.URL.Path, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: %s %s: status %d", ErrDeviceCallFailed, req.Method, req.URL.Path, resp.StatusCode)
	}
	return nil
}

// queryEscape escapes spaces as %20 rather than '+'.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

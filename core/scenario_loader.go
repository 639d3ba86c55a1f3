// core/scenario_loader.go
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/iancoleman/orderedmap"

	"github.com/signalsfoundry/kite-simulator/model"
)

// internal JSON shapes, unexported so the document format can evolve
// without touching the model package.
type simConfigJSON struct {
	Airplane struct {
		Surfaces json.RawMessage `json:"surfaces"`
	} `json:"airplane"`
}

type surfaceJSON struct {
	Airfoil     airfoilRef        `json:"airfoil"`
	Span        float64           `json:"span"`
	Chord       float64           `json:"chord"`
	Thickness   float64           `json:"thickness"`
	Position    model.Vec3        `json:"position"`
	Orientation model.Orientation `json:"orientation"`
	HingeAxis   *model.Vec3       `json:"hingeAxis,omitempty"`
}

// airfoilRef accepts either a table name or {"symmetric": bool}.
type airfoilRef string

func (a *airfoilRef) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*a = airfoilRef(name)
		return nil
	}
	var kind struct {
		Symmetric *bool `json:"symmetric"`
	}
	if err := json.Unmarshal(b, &kind); err != nil || kind.Symmetric == nil {
		return fmt.Errorf("airfoil must be a name or {\"symmetric\": bool}")
	}
	*a = airfoilRef(DefaultAirfoil(*kind.Symmetric).Name())
	return nil
}

// LoadSimConfig decodes a simulation config document. Aero surfaces keep
// the order in which they appear in the document, which fixes the order
// their forces are summed in. Defaults are applied and the result is
// validated.
func LoadSimConfig(r io.Reader) (model.SimConfig, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return model.SimConfig{}, fmt.Errorf("LoadSimConfig: read failed: %w", err)
	}

	var cfg model.SimConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return model.SimConfig{}, fmt.Errorf("LoadSimConfig: decode failed: %w", err)
	}

	var shape simConfigJSON
	if err := json.Unmarshal(raw, &shape); err != nil {
		return model.SimConfig{}, fmt.Errorf("LoadSimConfig: decode failed: %w", err)
	}
	if len(shape.Airplane.Surfaces) > 0 && !bytes.Equal(bytes.TrimSpace(shape.Airplane.Surfaces), []byte("null")) {
		surfaces, err := decodeSurfaces(shape.Airplane.Surfaces)
		if err != nil {
			return model.SimConfig{}, fmt.Errorf("LoadSimConfig: %w", err)
		}
		cfg.Airplane.Surfaces = surfaces
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return model.SimConfig{}, fmt.Errorf("LoadSimConfig: %w", err)
	}
	return cfg, nil
}

func decodeSurfaces(raw json.RawMessage) ([]model.AeroSurfaceOptions, error) {
	order := orderedmap.New()
	if err := json.Unmarshal(raw, order); err != nil {
		return nil, fmt.Errorf("surfaces: %w", err)
	}
	var byName map[string]surfaceJSON
	if err := json.Unmarshal(raw, &byName); err != nil {
		return nil, fmt.Errorf("surfaces: %w", err)
	}

	out := make([]model.AeroSurfaceOptions, 0, len(byName))
	for _, name := range order.Keys() {
		s := byName[name]
		if _, err := LookupAirfoil(string(s.Airfoil)); err != nil {
			return nil, fmt.Errorf("surface %q: %w", name, err)
		}
		out = append(out, model.AeroSurfaceOptions{
			Name:        name,
			Airfoil:     string(s.Airfoil),
			Span:        s.Span,
			Chord:       s.Chord,
			Thickness:   s.Thickness,
			Position:    s.Position,
			Orientation: s.Orientation,
			HingeAxis:   s.HingeAxis,
		})
	}
	return out, nil
}

// WriteSimConfig encodes cfg in the format read by LoadSimConfig.
func WriteSimConfig(w io.Writer, cfg model.SimConfig) error {
	surfaces := orderedmap.New()
	for _, s := range cfg.Airplane.Surfaces {
		surfaces.Set(s.Name, surfaceJSON{
			Airfoil:     airfoilRef(s.Airfoil),
			Span:        s.Span,
			Chord:       s.Chord,
			Thickness:   s.Thickness,
			Position:    s.Position,
			Orientation: s.Orientation,
			HingeAxis:   s.HingeAxis,
		})
	}

	// Round-trip through a generic document so the surfaces object can be
	// spliced into the airplane section.
	base, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("WriteSimConfig: encode failed: %w", err)
	}
	doc := orderedmap.New()
	if err := json.Unmarshal(base, doc); err != nil {
		return fmt.Errorf("WriteSimConfig: encode failed: %w", err)
	}
	if v, ok := doc.Get("airplane"); ok {
		if airplane, ok := v.(orderedmap.OrderedMap); ok {
			airplane.Set("surfaces", surfaces)
			doc.Set("airplane", airplane)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("WriteSimConfig: encode failed: %w", err)
	}
	return nil
}

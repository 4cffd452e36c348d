package render

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/katalvlaran/roadtour/internal/config"
	"github.com/katalvlaran/roadtour/internal/planner"
)

//go:embed map.html.tmpl
var mapTemplate string

var page = template.Must(template.New("map").Parse(mapTemplate))

// MapOptions configures HTML.
type MapOptions struct {
	Title       string
	TileURL     string
	Attribution string
	// Tolerance is the Douglas-Peucker tolerance in degrees for road paths.
	Tolerance float64
}

// MapOptionsFromConfig maps the render section.
func MapOptionsFromConfig(c config.Config) MapOptions {
	return MapOptions{
		Title:       "Tour",
		TileURL:     c.Render.TileURL,
		Attribution: c.Render.Attribution,
		Tolerance:   c.Render.SimplifyTolerance,
	}
}

type pageData struct {
	Title       string
	TileURL     string
	Attribution template.HTML
	Features    template.JS
	Bounds      template.JS
	Result      *planner.Result
}

// HTML writes a standalone Leaflet page: numbered stop markers, the route,
// the itinerary table and the total, fitted to the bounds of the tour.
func HTML(w io.Writer, res *planner.Result, opts MapOptions) error {
	fc := GeoJSON(res, opts.Tolerance)
	features, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("render: encode features: %w", err)
	}

	b := bound(res, legLines(res, opts.Tolerance)).Pad(0.002)
	bounds, err := json.Marshal([][2]float64{{b.Bottom(), b.Left()}, {b.Top(), b.Right()}})
	if err != nil {
		return fmt.Errorf("render: encode bounds: %w", err)
	}

	data := pageData{
		Title:   opts.Title,
		TileURL: opts.TileURL,
		// Attribution comes from operator config and may carry entities.
		Attribution: template.HTML(opts.Attribution),
		Features:    template.JS(features),
		Bounds:      template.JS(bounds),
		Result:      res,
	}
	if data.Title == "" {
		data.Title = "Tour"
	}

	var buf bytes.Buffer
	if err = page.Execute(&buf, data); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	_, err = buf.WriteTo(w)

	return err
}

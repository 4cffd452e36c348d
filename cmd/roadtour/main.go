// Command roadtour plans one tour and prints the itinerary.
//
//	roadtour -locations stops.yaml [-geojson tour.geojson] [-html tour.html]
//	roadtour -lat 52.52,52.51,52.36 -lon 13.40,13.33,13.50
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/katalvlaran/roadtour/internal/app"
	"github.com/katalvlaran/roadtour/internal/config"
	"github.com/katalvlaran/roadtour/internal/infra/log"
	"github.com/katalvlaran/roadtour/internal/planner"
	"github.com/katalvlaran/roadtour/internal/render"
	"github.com/katalvlaran/roadtour/location"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "roadtour:", err)
		os.Exit(1)
	}
}

type flags struct {
	config    string
	locations string
	lats      string
	lons      string
	geojson   string
	html      string
	title     string
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("roadtour", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "YAML config file (default $ROADTOUR_CONFIG)")
	fs.StringVar(&f.locations, "locations", "", "YAML or JSON file of {label, lat, lon} stops; the first is the start")
	fs.StringVar(&f.lats, "lat", "", "comma-separated latitudes, instead of -locations")
	fs.StringVar(&f.lons, "lon", "", "comma-separated longitudes, instead of -locations")
	fs.StringVar(&f.geojson, "geojson", "", "write the tour as GeoJSON to this file")
	fs.StringVar(&f.html, "html", "", "write a Leaflet map page to this file")
	fs.StringVar(&f.title, "title", "Tour", "map page title")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if (f.locations == "") == (f.lats == "" && f.lons == "") {
		return f, errors.New("give either -locations or -lat and -lon")
	}

	return f, nil
}

func loadLocations(f flags) ([]location.Location, error) {
	if f.locations != "" {
		return location.LoadFile(f.locations)
	}

	return location.ParseList(strings.Split(f.lats, ","), strings.Split(f.lons, ","))
}

func run(args []string, out io.Writer) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}
	logger := log.NewLogger(cfg)

	locs, err := loadLocations(f)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Planner.Plan(ctx, locs)
	if err != nil {
		return err
	}
	if err = printItinerary(out, res); err != nil {
		return err
	}

	opts := render.MapOptionsFromConfig(cfg)
	opts.Title = f.title
	return writeOutputs(f, res, opts)
}

func writeOutputs(f flags, res *planner.Result, opts render.MapOptions) error {
	if f.geojson != "" {
		b, err := json.MarshalIndent(render.GeoJSON(res, opts.Tolerance), "", "  ")
		if err != nil {
			return err
		}
		if err = os.WriteFile(f.geojson, b, 0o644); err != nil {
			return err
		}
	}
	if f.html != "" {
		file, err := os.Create(f.html)
		if err != nil {
			return err
		}
		if err = render.HTML(file, res, opts); err != nil {
			_ = file.Close()
			return err
		}
		return file.Close()
	}

	return nil
}

func printItinerary(w io.Writer, res *planner.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "visit\tindex\tlabel\tlat\tlon\tleg (%s)\t\n", res.Unit)
	for _, s := range res.Stops {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.6f\t%.6f\t%.3f\t\n", s.Visit, s.Index, s.Label, s.Lat, s.Lon, s.Leg)
	}
	if len(res.Stops) > 0 {
		first := res.Stops[0]
		fmt.Fprintf(tw, "\t%d\t%s\t%.6f\t%.6f\t%.3f\t\n", first.Index, first.Label, first.Lat, first.Lon, res.ReturnLeg)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	kind := "heuristic"
	if res.Optimal {
		kind = "optimal"
	}
	_, err := fmt.Fprintf(w, "\ntotal %.3f %s (%s, %s, %d moves, %s)\n",
		res.Total, res.Unit, kind, res.Solver, res.Moves, res.Termination)

	return err
}

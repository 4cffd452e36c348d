package location

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is the serialized form of a location in files and request bodies.
type Entry struct {
	Label string  `yaml:"label" json:"label,omitempty"`
	Lat   float64 `yaml:"lat" json:"lat"`
	Lon   float64 `yaml:"lon" json:"lon"`
}

// ParseList turns parallel latitude/longitude strings into locations.
//
// Pairs where either side is blank are skipped, as form rows left empty;
// the remaining locations get consecutive indices from 0 and default labels.
func ParseList(lats, lons []string) ([]Location, error) {
	if len(lats) != len(lons) {
		return nil, fmt.Errorf("%d latitudes, %d longitudes: %w", len(lats), len(lons), ErrMismatchedLists)
	}

	out := make([]Location, 0, len(lats))
	for row := range lats {
		latS, lonS := strings.TrimSpace(lats[row]), strings.TrimSpace(lons[row])
		if latS == "" || lonS == "" {
			continue
		}
		lat, err := strconv.ParseFloat(latS, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d latitude %q: %w", row, latS, ErrNotNumeric)
		}
		lon, err := strconv.ParseFloat(lonS, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d longitude %q: %w", row, lonS, ErrNotNumeric)
		}
		loc, err := New(len(out), "", lat, lon)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		out = append(out, loc)
	}

	return out, nil
}

// FromEntries validates entries and assigns indices in order.
// Labels must be unique; empty labels get defaults.
func FromEntries(entries []Entry) ([]Location, error) {
	out := make([]Location, len(entries))
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		loc, err := New(i, strings.TrimSpace(e.Label), e.Lat, e.Lon)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if j, dup := seen[loc.Label]; dup {
			return nil, fmt.Errorf("%q at entries %d and %d: %w", loc.Label, j, i, ErrDuplicateLabel)
		}
		seen[loc.Label] = i
		out[i] = loc
	}

	return out, nil
}

// Entries is the inverse of FromEntries.
func Entries(locs []Location) []Entry {
	out := make([]Entry, len(locs))
	for i, l := range locs {
		out[i] = Entry{Label: l.Label, Lat: l.Lat(), Lon: l.Lon()}
	}

	return out
}

// LoadFile reads a YAML or JSON file holding either a list of entries or a
// document with a top-level "locations" list.
func LoadFile(path string) ([]Location, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locations: %w", err)
	}

	return Decode(b)
}

// Decode parses the LoadFile format from memory. JSON is accepted as a
// subset of YAML.
func Decode(b []byte) ([]Location, error) {
	var list []Entry
	if err := yaml.Unmarshal(b, &list); err == nil {
		return FromEntries(list)
	}

	var doc struct {
		Locations []Entry `yaml:"locations"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode locations: %w", err)
	}

	return FromEntries(doc.Locations)
}

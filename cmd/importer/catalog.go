package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/samirrijal/ridematch/internal/core/domain"
)

// routeRecord is one route in an import file. Coordinates are [lon, lat]
// pairs; EncodedPolyline is used when they are absent.
type routeRecord struct {
	ID              string      `json:"id" yaml:"id"`
	Name            string      `json:"name" yaml:"name"`
	Direction       string      `json:"direction" yaml:"direction"`
	District        string      `json:"district" yaml:"district"`
	Coordinates     [][]float64 `json:"coordinates" yaml:"coordinates"`
	EncodedPolyline string      `json:"encoded_polyline" yaml:"encoded_polyline"`
}

// catalogFile is the wrapped form {"routes": [...]}. A bare list of records
// is accepted too.
type catalogFile struct {
	Routes []routeRecord `json:"routes" yaml:"routes"`
}

func loadCatalog(path string) ([]domain.RouteInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	return parseCatalog(data, format)
}

func parseCatalog(data []byte, format string) ([]domain.RouteInput, error) {
	var records []routeRecord

	switch format {
	case "json":
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &records); err != nil {
				return nil, fmt.Errorf("decode json: %w", err)
			}
		} else {
			var f catalogFile
			if err := json.Unmarshal(trimmed, &f); err != nil {
				return nil, fmt.Errorf("decode json: %w", err)
			}
			records = f.Routes
		}

	case "yaml":
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		if len(root.Content) == 0 {
			return nil, nil
		}
		doc := root.Content[0]
		if doc.Kind == yaml.SequenceNode {
			if err := doc.Decode(&records); err != nil {
				return nil, fmt.Errorf("decode yaml: %w", err)
			}
		} else {
			var f catalogFile
			if err := doc.Decode(&f); err != nil {
				return nil, fmt.Errorf("decode yaml: %w", err)
			}
			records = f.Routes
		}

	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	inputs := make([]domain.RouteInput, 0, len(records))
	for i, rec := range records {
		in, err := rec.toInput()
		if err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, rec.ID, err)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func (r routeRecord) toInput() (domain.RouteInput, error) {
	in := domain.RouteInput{
		ID:              r.ID,
		Name:            r.Name,
		Direction:       r.Direction,
		District:        r.District,
		EncodedPolyline: r.EncodedPolyline,
	}
	if len(r.Coordinates) > 0 {
		in.Coordinates = make([]domain.GeoPoint, len(r.Coordinates))
		for i, pair := range r.Coordinates {
			if len(pair) != 2 {
				return in, fmt.Errorf("coordinate %d: want [lon, lat], got %d values", i, len(pair))
			}
			in.Coordinates[i] = domain.GeoPoint{Lon: pair[0], Lat: pair[1]}
		}
	}
	return in, nil
}

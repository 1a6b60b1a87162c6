// Package mapview builds the marker set of the home-page map from the
// open cases. It is a pure read-and-render pass: nothing is persisted
// and the set is computed fresh on every request.
package mapview

import (
	"context"
	"database/sql"
	"fmt"

	"buscapet/backend/db"
	"buscapet/backend/server/api"
	"buscapet/backend/storage"
	"buscapet/backend/util"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	geojson "github.com/paulmach/go.geojson"
)

const (
	// Fallback center: Americana/SP, shown at a wider zoom when no open
	// case carries coordinates.
	FallbackLat  = -22.7532
	FallbackLon  = -47.3330
	FallbackZoom = 12
	DefaultZoom  = 13

	colorLost  = "red"
	colorFound = "green"
)

type Builder struct {
	DB    *sql.DB
	Store storage.Store
}

// Build fetches the open cases and turns every one with coordinates and
// a thumbnail into a marker. Cases missing either are silently excluded;
// they still exist, they just cannot be placed on the map.
func (b *Builder) Build(ctx context.Context) (*api.MapResponse, error) {
	cases, err := db.OpenCases(ctx, b.DB)
	if err != nil {
		return nil, err
	}

	markers := make([]api.Marker, 0, len(cases))
	var sum r3.Vector
	for _, c := range cases {
		if c.Latitude == nil || c.Longitude == nil || c.ThumbnailKey == "" {
			continue
		}
		markers = append(markers, api.Marker{
			CaseID:       c.ID,
			PetName:      c.PetName,
			Species:      c.Species,
			Neighborhood: c.Neighborhood,
			Status:       c.Status,
			Color:        markerColor(c.Status),
			Latitude:     *c.Latitude,
			Longitude:    *c.Longitude,
			ThumbnailURL: b.Store.URL(c.ThumbnailKey),
			DetailsURL:   fmt.Sprintf("/pets/%d", c.ID),
		})
		sum = sum.Add(s2.PointFromLatLng(s2.LatLngFromDegrees(*c.Latitude, *c.Longitude)).Vector)
	}

	resp := &api.MapResponse{
		CenterLat: FallbackLat,
		CenterLon: FallbackLon,
		Zoom:      FallbackZoom,
		Markers:   markers,
	}
	if len(markers) > 0 {
		center := s2.LatLngFromPoint(s2.Point{Vector: sum.Normalize()})
		resp.CenterLat = center.Lat.Degrees()
		resp.CenterLon = center.Lng.Degrees()
		resp.Zoom = DefaultZoom
	}
	return resp, nil
}

// ToGeoJSON renders the marker set as a FeatureCollection for clients
// that draw the map themselves.
func ToGeoJSON(m *api.MapResponse) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, marker := range m.Markers {
		f := geojson.NewPointFeature([]float64{marker.Longitude, marker.Latitude})
		f.SetProperty("case_id", marker.CaseID)
		f.SetProperty("pet_name", marker.PetName)
		f.SetProperty("species", marker.Species)
		f.SetProperty("neighborhood", marker.Neighborhood)
		f.SetProperty("status", string(marker.Status))
		f.SetProperty("color", marker.Color)
		f.SetProperty("thumbnail_url", marker.ThumbnailURL)
		f.SetProperty("details_url", marker.DetailsURL)
		fc.AddFeature(f)
	}
	return fc
}

// markerColor is green only for found pets; lost and anything
// unrecognized render red.
func markerColor(status util.Status) string {
	if status == util.StatusFound {
		return colorFound
	}
	return colorLost
}

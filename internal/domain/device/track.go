package device

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// Track маршрут устройства по сохраненным позициям
type Track struct {
	EnteredID      string                     `json:"enteredId"`
	Name           string                     `json:"name"`
	Points         int                        `json:"points"`
	DistanceMeters float64                    `json:"distanceMeters"`
	From           *time.Time                 `json:"from,omitempty"`
	To             *time.Time                 `json:"to,omitempty"`
	GeoJSON        *geojson.FeatureCollection `json:"geojson"`
}

// BuildTrack строит линию маршрута из позиций в порядке вставки.
// Позиции с valid=false в маршрут не попадают.
func BuildTrack(d *Device, positions []*Position) *Track {
	track := &Track{
		EnteredID: d.EnteredID,
		Name:      d.CustomName,
		GeoJSON:   geojson.NewFeatureCollection(),
	}

	line := make(orb.LineString, 0, len(positions))
	var last *Position
	for _, p := range positions {
		if !p.Valid {
			continue
		}

		point := orb.Point{p.Longitude, p.Latitude}
		if len(line) > 0 {
			track.DistanceMeters += geo.DistanceHaversine(line[len(line)-1], point)
		}
		line = append(line, point)

		if track.From == nil {
			from := p.FixTime
			track.From = &from
		}
		last = p
	}

	track.Points = len(line)
	if last == nil {
		return track
	}

	to := last.FixTime
	track.To = &to

	if len(line) > 1 {
		route := geojson.NewFeature(line)
		route.Properties["enteredId"] = d.EnteredID
		route.Properties["name"] = d.CustomName
		route.Properties["distanceMeters"] = track.DistanceMeters
		track.GeoJSON.Append(route)
	}

	current := geojson.NewFeature(line[len(line)-1])
	current.Properties["enteredId"] = d.EnteredID
	current.Properties["fixTime"] = last.FixTime.Format(time.RFC3339)
	current.Properties["speed"] = last.Speed
	if last.BatteryLevel != nil {
		current.Properties["batteryLevel"] = *last.BatteryLevel
	}
	track.GeoJSON.Append(current)

	return track
}

// Package kmlexport renders gate analyses as KML for map viewers.
package kmlexport

import (
	"fmt"
	"image/color"
	"io"

	"github.com/twpayne/go-kml/v2"

	"github.com/samirrijal/gateflow/internal/core/domain"
)

var (
	gateStyle = kml.SharedStyle("gate",
		kml.LineStyle(kml.Color(color.RGBA{R: 255, G: 215, A: 255}), kml.Width(3)),
	)
	squareStyle = kml.SharedStyle("square",
		kml.LineStyle(kml.Color(color.RGBA{R: 255, G: 255, B: 255, A: 200}), kml.Width(1)),
		kml.PolyStyle(kml.Color(color.RGBA{R: 255, G: 255, B: 255, A: 40}), kml.Fill(true), kml.Outline(true)),
	)
	upstreamStyle = kml.SharedStyle("upstream",
		kml.IconStyle(kml.Color(color.RGBA{R: 30, G: 144, B: 255, A: 255}), kml.Scale(0.6)),
	)
	downstreamStyle = kml.SharedStyle("downstream",
		kml.IconStyle(kml.Color(color.RGBA{R: 220, G: 20, B: 60, A: 255}), kml.Scale(0.6)),
	)
	vesselStyle = kml.SharedStyle("vessel",
		kml.IconStyle(kml.Color(color.RGBA{G: 200, A: 255}), kml.Scale(1)),
	)
)

// WriteSquare writes a document holding only the gate and its square.
func WriteSquare(w io.Writer, gate domain.GateLine, square domain.BoundingSquare) error {
	doc := kml.Document(
		kml.Name("gate square"),
		gateStyle, squareStyle,
		gatePlacemark(gate),
		squarePlacemark(square),
	)
	return kml.KML(doc).WriteIndent(w, "", "  ")
}

// WriteAnalysis writes the gate, its square, the classified reports of each
// direction and the counted vessels.
func WriteAnalysis(w io.Writer, a *domain.FlowAnalysis) error {
	name := "gate flow"
	if a.Batch != "" {
		name = "gate flow " + a.Batch
	}
	doc := kml.Document(
		kml.Name(name),
		kml.Description(fmt.Sprintf("%d vessels crossed (%d upstream, %d downstream)",
			a.Result.Count, a.UpstreamCount, a.DownstreamCount)),
		gateStyle, squareStyle, upstreamStyle, downstreamStyle, vesselStyle,
		gatePlacemark(a.Gate),
		squarePlacemark(a.Square),
		reportFolder(fmt.Sprintf("upstream %.1f°", a.Split.UpstreamBearing), upstreamStyle.URL(), a.Split.Upstream),
		reportFolder(fmt.Sprintf("downstream %.1f°", a.Split.DownstreamBearing), downstreamStyle.URL(), a.Split.Downstream),
		reportFolder("crossing vessels", vesselStyle.URL(), a.Result.Vessels),
	)
	return kml.KML(doc).WriteIndent(w, "", "  ")
}

func gatePlacemark(gate domain.GateLine) kml.Element {
	return kml.Placemark(
		kml.Name("gate"),
		kml.StyleURL(gateStyle.URL()),
		kml.LineString(kml.Coordinates(coord(gate.P1), coord(gate.P2))),
	)
}

func squarePlacemark(square domain.BoundingSquare) kml.Element {
	coords := make([]kml.Coordinate, 0, len(square.Points))
	for _, p := range square.Points {
		coords = append(coords, coord(p))
	}
	return kml.Placemark(
		kml.Name("square"),
		kml.StyleURL(squareStyle.URL()),
		kml.Polygon(kml.OuterBoundaryIs(kml.LinearRing(kml.Coordinates(coords...)))),
	)
}

func reportFolder(name, styleURL string, reports []domain.PositionReport) kml.Element {
	children := make([]kml.Element, 0, len(reports)+1)
	children = append(children, kml.Name(name))
	for _, r := range reports {
		children = append(children, kml.Placemark(
			kml.Name(fmt.Sprintf("%d", r.MMSI)),
			kml.Description(fmt.Sprintf("course %.1f, speed %.1f kn, length %.0f m", r.Cog, r.Speed, r.Length)),
			kml.StyleURL(styleURL),
			kml.Point(kml.Coordinates(coord(r.Point()))),
		))
	}
	return kml.Folder(children...)
}

func coord(p domain.GeoPoint) kml.Coordinate {
	return kml.Coordinate{Lon: p.Lon, Lat: p.Lat}
}

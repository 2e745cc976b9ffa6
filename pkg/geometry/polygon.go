package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Rect returns the corners of [0,w]x[0,h], ordered so that the interior is
// on the left of each edge in y-down image coordinates.
func Rect(w, h float64) []r2.Vec {
	return []r2.Vec{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
}

// Quad returns the corners of [0,w]x[0,h] after applying t.
func Quad(t AffineTransform, w, h float64) []r2.Vec {
	corners := Rect(w, h)
	for i, c := range corners {
		corners[i] = t.Apply(c)
	}
	return corners
}

// Area returns the unsigned area of a simple polygon.
func Area(polygon []r2.Vec) float64 {
	if len(polygon) < 3 {
		return 0
	}
	var sum float64
	for i := range polygon {
		a, b := polygon[i], polygon[(i+1)%len(polygon)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(sum) / 2
}

// IntersectPolygons computes the intersection of two convex polygons using
// the Sutherland-Hodgman algorithm. clip must be ordered like Rect.
// Returns nil if there is no intersection or if inputs are invalid.
func IntersectPolygons(subject, clip []r2.Vec) []r2.Vec {
	if len(subject) < 3 || len(clip) < 3 {
		return nil
	}

	output := make([]r2.Vec, len(subject))
	copy(output, subject)

	for i := 0; i < len(clip); i++ {
		if len(output) == 0 {
			return nil
		}
		output = clipPolygonByEdge(output, clip[i], clip[(i+1)%len(clip)])
	}

	if len(output) < 3 {
		return nil
	}
	return output
}

func clipPolygonByEdge(polygon []r2.Vec, edgeStart, edgeEnd r2.Vec) []r2.Vec {
	var clipped []r2.Vec

	for i := 0; i < len(polygon); i++ {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]

		currentInside := isInsideEdge(current, edgeStart, edgeEnd)
		nextInside := isInsideEdge(next, edgeStart, edgeEnd)

		if currentInside {
			clipped = append(clipped, current)
			if !nextInside {
				if p, ok := lineIntersection(current, next, edgeStart, edgeEnd); ok {
					clipped = append(clipped, p)
				}
			}
		} else if nextInside {
			if p, ok := lineIntersection(current, next, edgeStart, edgeEnd); ok {
				clipped = append(clipped, p)
			}
		}
	}

	return clipped
}

func isInsideEdge(p, edgeStart, edgeEnd r2.Vec) bool {
	return r2.Cross(r2.Sub(edgeEnd, edgeStart), r2.Sub(p, edgeStart)) >= 0
}

// lineIntersection intersects segment p1-p2 with the line through e1-e2.
func lineIntersection(p1, p2, e1, e2 r2.Vec) (r2.Vec, bool) {
	d := r2.Sub(p2, p1)
	e := r2.Sub(e2, e1)
	denom := r2.Cross(d, e)
	if math.Abs(denom) < 1e-10 {
		// Parallel
		return r2.Vec{}, false
	}
	t := r2.Cross(r2.Sub(e1, p1), e) / denom
	return r2.Add(p1, r2.Scale(t, d)), true
}

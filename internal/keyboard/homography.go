package keyboard

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// singularEpsilon bounds distances and determinants that are treated as zero.
const singularEpsilon = 1e-9

// perspectiveMap fits the perspective transform that takes each src anchor
// onto its dst anchor and maps pts through it. Three collinear anchors on
// either side leave OpenCV with a zero matrix, which is reported as
// ErrDegenerateAnchors.
func perspectiveMap(src, dst [4]Point, pts []Point) ([]Point, error) {
	srcVec := gocv.NewPoint2fVectorFromPoints(toPoint2f(src[:]))
	defer srcVec.Close()
	dstVec := gocv.NewPoint2fVectorFromPoints(toPoint2f(dst[:]))
	defer dstVec.Close()

	m := gocv.GetPerspectiveTransform2f(srcVec, dstVec)
	defer m.Close()

	if m.Empty() {
		return nil, fmt.Errorf("%w: no transform fits the anchors", ErrDegenerateAnchors)
	}
	if det := gocv.Determinant(m); math.Abs(det) < singularEpsilon || math.IsNaN(det) {
		return nil, fmt.Errorf("%w: transform collapses the plane", ErrDegenerateAnchors)
	}

	in := gocv.NewPoint2fVectorFromPoints(toPoint2f(pts))
	defer in.Close()
	inMat := gocv.NewMatFromPoint2fVector(in, true)
	defer inMat.Close()

	outMat := gocv.NewMat()
	defer outMat.Close()
	if err := gocv.PerspectiveTransform(inMat, &outMat, m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateAnchors, err)
	}

	out := make([]Point, len(pts))
	for i := range out {
		v := outMat.GetVecfAt(i, 0)
		x, y := float64(v[0]), float64(v[1])
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("%w: point %v maps to infinity", ErrDegenerateAnchors, pts[i])
		}
		out[i] = Point{X: x, Y: y}
	}
	return out, nil
}

func toPoint2f(pts []Point) []gocv.Point2f {
	out := make([]gocv.Point2f, len(pts))
	for i, p := range pts {
		out[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}
	return out
}

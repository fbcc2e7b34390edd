package geometry

import "github.com/pthm-cable/collimation/numeric"

// IsRightOf reports whether point lies strictly to the right of the directed
// line from start to end, from the sign of the z component of
// (end-start) × (point-start). Points on the line, and every point when the
// line has zero length, are not to the right.
func IsRightOf[S, V, M any](b numeric.Backend[S, V, M], start, end, point Point[V]) M {
	n := max(b.Len(start.X), b.Len(end.X), b.Len(point.X))
	sx, sy := b.Broadcast(start.X, n), b.Broadcast(start.Y, n)
	ex, ey := b.Broadcast(end.X, n), b.Broadcast(end.Y, n)
	px, py := b.Broadcast(point.X, n), b.Broadcast(point.Y, n)

	crossZ := b.Sub(
		b.Mul(b.Sub(ex, sx), b.Sub(py, sy)),
		b.Mul(b.Sub(ey, sy), b.Sub(px, sx)),
	)
	return b.Less(crossZ, b.Broadcast(b.Const(0), n))
}

// Crosses reports whether segment particle→ref properly crosses the edge
// edgeStart→edgeEnd: each segment's endpoints lie on opposite sides of the
// other segment's line.
func Crosses[S, V, M any](b numeric.Backend[S, V, M], particle, ref, edgeStart, edgeEnd Point[V]) M {
	edgeSplits := b.Xor(
		IsRightOf(b, edgeStart, edgeEnd, particle),
		IsRightOf(b, edgeStart, edgeEnd, ref),
	)
	segmentSplits := b.Xor(
		IsRightOf(b, particle, ref, edgeStart),
		IsRightOf(b, particle, ref, edgeEnd),
	)
	return b.And(edgeSplits, segmentSplits)
}

// lift converts a vertex into backend values.
func lift[S, V, M any](b numeric.Backend[S, V, M], p Point[S]) Point[V] {
	return Point[V]{b.Lift(p.X), b.Lift(p.Y)}
}

package lattice

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/collimation/elements"
	"github.com/pthm-cable/collimation/geometry"
)

// vertexRow is one line of a polygon coordinate file. Coordinates stay
// decimal literals until the caller picks a precision.
type vertexRow struct {
	X string `csv:"x"`
	Y string `csv:"y"`
}

// ReadVertices reads whitespace-separated "x y" lines and returns the
// coordinates as written. Blank lines and lines starting with # are skipped.
func ReadVertices(r io.Reader) (xs, ys []string, err error) {
	var buf strings.Builder
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) != 2 {
			return nil, nil, fmt.Errorf("line %d: %w: want 2 columns, got %d",
				line, geometry.ErrInvalidPolygon, len(fields))
		}
		buf.WriteString(fields[0])
		buf.WriteByte(',')
		buf.WriteString(fields[1])
		buf.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading polygon: %w", err)
	}

	var rows []vertexRow
	if buf.Len() > 0 {
		if err := gocsv.UnmarshalWithoutHeaders(strings.NewReader(buf.String()), &rows); err != nil {
			return nil, nil, fmt.Errorf("parsing polygon: %w", err)
		}
	}

	xs = make([]string, len(rows))
	ys = make([]string, len(rows))
	for i, r := range rows {
		xs[i], ys[i] = r.X, r.Y
	}
	return xs, ys, nil
}

// ReadPolygon reads a polygon coordinate file as float64 vertices.
func ReadPolygon(r io.Reader) (geometry.Polygon[float64], error) {
	xs, ys, err := ReadVertices(r)
	if err != nil {
		return geometry.Polygon[float64]{}, err
	}
	fx, err := parseFloats(xs)
	if err != nil {
		return geometry.Polygon[float64]{}, err
	}
	fy, err := parseFloats(ys)
	if err != nil {
		return geometry.Polygon[float64]{}, err
	}
	return geometry.NewPolygon(fx, fy)
}

func parseFloats(vs []string) ([]float64, error) {
	out := make([]float64, len(vs))
	for i, s := range vs {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: vertex %d: %v", geometry.ErrInvalidPolygon, i, err)
		}
		out[i] = v
	}
	return out, nil
}

// ReadPolygonFile reads a polygon coordinate file from disk.
func ReadPolygonFile(path string) (geometry.Polygon[float64], error) {
	f, err := os.Open(path)
	if err != nil {
		return geometry.Polygon[float64]{}, fmt.Errorf("opening polygon file: %w", err)
	}
	defer f.Close()

	poly, err := ReadPolygon(f)
	if err != nil {
		return poly, fmt.Errorf("%s: %w", path, err)
	}
	return poly, nil
}

// ReadLimitPolygon reads a polygon coordinate file into an aperture whose
// arbitrary-precision vertices are the file's decimal values at prec bits.
func ReadLimitPolygon(r io.Reader, ref geometry.RefPolicy, prec uint) (*elements.LimitPolygon, error) {
	xs, ys, err := ReadVertices(r)
	if err != nil {
		return nil, err
	}
	return elements.NewLimitPolygonDecimal(xs, ys, ref, prec)
}

// ReadLimitPolygonFile is ReadLimitPolygon on a file.
func ReadLimitPolygonFile(path string, ref geometry.RefPolicy, prec uint) (*elements.LimitPolygon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening polygon file: %w", err)
	}
	defer f.Close()

	ap, err := ReadLimitPolygon(f, ref, prec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ap, nil
}

// WritePolygon writes vertices in the format ReadPolygon accepts.
func WritePolygon(w io.Writer, poly geometry.Polygon[float64]) error {
	rows := make([]vertexRow, poly.Len())
	for i := range rows {
		rows[i] = vertexRow{
			X: strconv.FormatFloat(poly.X[i], 'g', -1, 64),
			Y: strconv.FormatFloat(poly.Y[i], 'g', -1, 64),
		}
	}
	var buf strings.Builder
	if err := gocsv.MarshalWithoutHeaders(rows, &buf); err != nil {
		return fmt.Errorf("writing polygon: %w", err)
	}
	_, err := io.WriteString(w, strings.ReplaceAll(buf.String(), ",", " "))
	return err
}

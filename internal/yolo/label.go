// Package yolo reads YOLO segmentation label files: one object per line,
// "class_id x1 y1 x2 y2 ... xn yn" with coordinates normalized to the image size.
package yolo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/yolo2coco/internal/geometry"
)

// DefaultMinVertices is the smallest vertex count that encloses an area.
const DefaultMinVertices = 3

var (
	// ErrOddCoordinates marks a line whose coordinates cannot be paired into vertices.
	ErrOddCoordinates = errors.New("odd number of coordinates")
	// ErrInvalidClass marks a line whose first token is not an integer.
	ErrInvalidClass = errors.New("invalid class id")
	// ErrInvalidCoordinate marks a coordinate token that is not a finite number.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrTooFewVertices marks a polygon below the configured vertex minimum.
	ErrTooFewVertices = errors.New("too few vertices")
)

// Record is one parsed object instance.
type Record struct {
	Line    int
	ClassID int
	// Polygon holds normalized vertices in file order.
	Polygon []geometry.Point
}

// LineError describes why a single line was rejected.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// IsParseError reports whether err comes from a token that is not a number,
// as opposed to a structurally unusable polygon.
func IsParseError(err error) bool {
	return errors.Is(err, ErrInvalidClass) || errors.Is(err, ErrInvalidCoordinate)
}

// Parser turns label lines into records.
type Parser struct {
	// MinVertices rejects polygons with fewer vertices. Zero accepts any even count.
	MinVertices int
}

// NewParser returns a parser that rejects polygons with fewer than minVertices
// vertices.
func NewParser(minVertices int) *Parser {
	return &Parser{MinVertices: minVertices}
}

// ParseLine parses one non-blank line. The returned error is one of the package
// sentinels, possibly wrapped with token details.
func (p *Parser) ParseLine(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Record{}, fmt.Errorf("%w: empty line", ErrInvalidClass)
	}

	classID, err := strconv.Atoi(fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidClass, fields[0])
	}

	tokens := fields[1:]
	if len(tokens)%2 != 0 {
		return Record{}, fmt.Errorf("%w: got %d", ErrOddCoordinates, len(tokens))
	}

	coords := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Record{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, tok)
		}
		coords[i] = v
	}

	pts, err := geometry.PointsFromFlat(coords)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrOddCoordinates, err)
	}
	if len(pts) < p.MinVertices {
		return Record{}, fmt.Errorf("%w: got %d, need %d", ErrTooFewVertices, len(pts), p.MinVertices)
	}

	return Record{ClassID: classID, Polygon: pts}, nil
}

// Parse reads every line of r. Blank lines are ignored. Rejected lines are
// returned as LineErrors alongside the accepted records; the error result is
// reserved for read failures.
func (p *Parser) Parse(r io.Reader) ([]Record, []*LineError, error) {
	var (
		records  []Record
		rejected []*LineError
	)

	scanner := bufio.NewScanner(r)
	// Dense polygons easily exceed the default 64KiB token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := p.ParseLine(line)
		if err != nil {
			rejected = append(rejected, &LineError{Line: lineNo, Err: err})
			continue
		}
		rec.Line = lineNo
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, rejected, fmt.Errorf("read labels: %w", err)
	}

	return records, rejected, nil
}

// ParseFile opens path and parses it.
func (p *Parser) ParseFile(path string) ([]Record, []*LineError, error) {
	f, err := os.Open(path) //nolint:gosec // G304: label paths come from directory discovery
	if err != nil {
		return nil, nil, fmt.Errorf("open label file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return p.Parse(f)
}

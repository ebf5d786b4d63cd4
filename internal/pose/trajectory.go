package pose

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/depthflow/internal/fsutil"
	"github.com/banshee-data/depthflow/internal/geom"
)

// TrajectoryColumns is the column count of a trajectory row: the frame
// number followed by 16 pose values.
const TrajectoryColumns = 17

// Row is one trajectory entry.
type Row struct {
	Frame int
	Pose  geom.Mat4x4
	// Line is the 1-based line in the source file, for error reporting.
	Line int
}

// ReadTrajectory parses rows of the form
//
//	frame,a11,a21,a31,a41,a12,a22,...,a44
//
// where the pose is listed column by column. Blank lines and lines starting
// with '#' are skipped.
func ReadTrajectory(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read trajectory: %w", err)
		}
		line, _ := cr.FieldPos(0)

		row, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("trajectory line %d: %w", line, err)
		}
		row.Line = line
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("trajectory is empty")
	}
	return rows, nil
}

// LoadTrajectory opens path on fs and parses it with ReadTrajectory.
func LoadTrajectory(fs fsutil.FileSystem, path string) ([]Row, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trajectory: %w", err)
	}
	defer f.Close()

	rows, err := ReadTrajectory(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func parseRow(record []string) (Row, error) {
	if len(record) != TrajectoryColumns {
		return Row{}, fmt.Errorf("expected %d columns, got %d", TrajectoryColumns, len(record))
	}

	frame, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return Row{}, fmt.Errorf("invalid frame number %q: %w", record[0], err)
	}

	var values [16]float64
	for i := range values {
		field := strings.TrimSpace(record[i+1])
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Row{}, fmt.Errorf("invalid pose value %q in column %d: %w", field, i+2, err)
		}
		values[i] = v
	}

	return Row{Frame: frame, Pose: geom.Mat4x4FromColumnMajor(values)}, nil
}

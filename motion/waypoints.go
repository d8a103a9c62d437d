package motion

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"go.viam.com/drivecontrol/spatialmath"
)

// EndOfWaypoints terminates a waypoint file. Anything after it is ignored.
const EndOfWaypoints = "endData"

// ParseWaypoints reads `x,y,velocity` lines up to the EndOfWaypoints line. Blank lines are
// skipped.
func ParseWaypoints(r io.Reader) ([]Waypoint, error) {
	var waypoints []Waypoint
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == EndOfWaypoints {
			return waypoints, nil
		}

		fields := strings.Split(line, ",")
		if len(fields) != 3 {
			return nil, errors.Errorf("line %d: expected x,y,velocity but got %d fields", lineNum, len(fields))
		}
		values := make([]float64, 3)
		for i, field := range fields {
			v, err := cast.ToFloat64E(strings.TrimSpace(field))
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", lineNum)
			}
			values[i] = v
		}
		waypoints = append(waypoints, Waypoint{
			Position: spatialmath.NewVec2(values[0], values[1]),
			Velocity: values[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading waypoints")
	}
	return nil, errors.Errorf("missing %q line", EndOfWaypoints)
}

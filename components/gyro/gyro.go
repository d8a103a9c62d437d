// Package gyro defines heading sensors (IMUs) as consumed by the tracking engine.
package gyro

import (
	"context"

	"go.viam.com/drivecontrol/spatialmath"
)

// A Gyro reports the robot's yaw. Heading follows the IMU convention: it increases clockwise.
// AngularVelocity is in radians per second, counter-clockwise positive.
type Gyro interface {
	Heading(ctx context.Context) (spatialmath.Angle, error)
	AngularVelocity(ctx context.Context) (float64, error)
}

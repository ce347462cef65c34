package capi

import (
	"math"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"github.com/smr-robotics/weldcore/kinematics"
)

func TestVersion(t *testing.T) {
	test.That(t, Version, test.ShouldEqual, "1.0.0")
}

func TestHandleLifecycle(t *testing.T) {
	h := CreatePointCloud()
	test.That(t, h, test.ShouldNotEqual, NilHandle)
	test.That(t, PointCloudCount(h), test.ShouldEqual, 0)

	DestroyPointCloud(h)
	// Stale handles are rejected, even after slot reuse.
	test.That(t, PointCloudCount(h), test.ShouldEqual, -1)
	h2 := CreatePointCloud()
	defer DestroyPointCloud(h2)
	test.That(t, PointCloudCount(h), test.ShouldEqual, -1)
	test.That(t, PointCloudCount(h2), test.ShouldEqual, 0)

	test.That(t, PointCloudCount(NilHandle), test.ShouldEqual, -1)
}

func TestLastError(t *testing.T) {
	h := CreatePointCloud()
	defer DestroyPointCloud(h)
	code := PointCloudSetPoints(h, []float32{1, 2})
	test.That(t, code, test.ShouldEqual, ErrInvalidParam)
	test.That(t, LastError(), test.ShouldNotBeEmpty)
}

func TestFileCodes(t *testing.T) {
	h := CreatePointCloud()
	defer DestroyPointCloud(h)
	code := PointCloudLoadPLY(h, filepath.Join(t.TempDir(), "missing.ply"))
	test.That(t, code, test.ShouldEqual, ErrFileNotFound)
}

func TestPointCloudPipeline(t *testing.T) {
	h := CreatePointCloud()
	defer DestroyPointCloud(h)

	// A small planar grid of points.
	var points []float32
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			points = append(points, float32(x)*0.01, float32(y)*0.01, 0)
		}
	}
	test.That(t, PointCloudSetPoints(h, points), test.ShouldEqual, Success)
	test.That(t, PointCloudCount(h), test.ShouldEqual, 100)

	// Normals do not exist yet.
	buf := make([]float32, 300)
	test.That(t, PointCloudNormals(h, buf), test.ShouldEqual, ErrComputation)
	test.That(t, PointCloudHasNormals(h), test.ShouldBeFalse)

	test.That(t, PointCloudEstimateNormalsKNN(h, 0), test.ShouldEqual, ErrInvalidParam)
	test.That(t, PointCloudEstimateNormalsKNN(h, 8), test.ShouldEqual, Success)
	test.That(t, PointCloudHasNormals(h), test.ShouldBeTrue)
	test.That(t, PointCloudOrientNormals(h, 0, 0, 10), test.ShouldEqual, Success)
	test.That(t, PointCloudNormals(h, buf), test.ShouldEqual, Success)
	test.That(t, buf[2], test.ShouldBeGreaterThan, 0)

	test.That(t, PointCloudDownsampleVoxel(h, -1), test.ShouldEqual, ErrInvalidParam)
	test.That(t, PointCloudDownsampleVoxel(h, 0.02), test.ShouldEqual, Success)
	test.That(t, PointCloudCount(h), test.ShouldBeLessThan, 100)

	test.That(t, PointCloudRemoveOutliers(h, 3, 2.0), test.ShouldEqual, Success)

	out := make([]float32, PointCloudCount(h)*3)
	test.That(t, PointCloudPoints(h, out), test.ShouldEqual, Success)
}

func TestRobotEntryPoints(t *testing.T) {
	h := CreateRobot(RobotUR5)
	test.That(t, h, test.ShouldNotEqual, NilHandle)
	defer DestroyRobot(h)

	joints := []float64{0, -math.Pi / 2, math.Pi / 2, 0, 0, 0}
	var pose [16]float64
	test.That(t, RobotForwardKinematics(h, joints, &pose), test.ShouldEqual, Success)
	test.That(t, pose[11], test.ShouldAlmostEqual, 0.29296, 1e-3)
	test.That(t, pose[15], test.ShouldEqual, 1)

	test.That(t, RobotForwardKinematics(h, joints[:3], &pose), test.ShouldEqual, ErrInvalidParam)
	test.That(t, RobotForwardKinematics(NilHandle, joints, &pose), test.ShouldEqual, ErrInvalidHandle)

	var jac [36]float64
	test.That(t, RobotJacobian(h, joints, &jac), test.ShouldEqual, Success)
	test.That(t, RobotCheckJointLimits(h, joints), test.ShouldBeTrue)
	test.That(t, RobotManipulability(h, joints), test.ShouldBeGreaterThanOrEqualTo, 0)

	// IK round trip through the ABI.
	sol := make([]float64, 6)
	test.That(t, RobotIKNearest(h, pose, joints, sol), test.ShouldEqual, Success)
	for i := range sol {
		test.That(t, sol[i], test.ShouldAlmostEqual, joints[i], 1e-3)
	}

	// Unreachable target reports no solution with zero count.
	far := [16]float64{1, 0, 0, 10, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	count := -1
	buf := make([]float64, 48)
	test.That(t, RobotInverseKinematics(h, far, buf, &count), test.ShouldEqual, ErrNoSolution)
	test.That(t, count, test.ShouldEqual, 0)
}

func TestRobotCustom(t *testing.T) {
	var dh [kinematics.NumJoints]kinematics.DHParam
	var limits [kinematics.NumJoints]kinematics.JointLimit
	for i := range dh {
		dh[i] = kinematics.DHParam{D: 0.1}
		limits[i] = kinematics.JointLimit{Min: -math.Pi, Max: math.Pi}
	}
	h := CreateRobotCustom(dh, limits)
	defer DestroyRobot(h)
	var pose [16]float64
	test.That(t, RobotForwardKinematics(h, make([]float64, 6), &pose), test.ShouldEqual, Success)
	test.That(t, pose[11], test.ShouldAlmostEqual, 0.6, 1e-9)
}

func TestPathEntryPoints(t *testing.T) {
	// A straight 20-point path along x.
	var points, normals []float32
	for i := 0; i < 20; i++ {
		points = append(points, float32(i)*0.005, 0, 0)
		normals = append(normals, 0, 0, 1)
	}
	params := PathParams{StepSize: 0.005, StandoffDistance: 0.015, WeaveAmplitude: 0.002, WeaveFrequency: 2}

	test.That(t, PathCreateFromPoints(nil, nil, params), test.ShouldEqual, NilHandle)

	h := PathCreateFromPoints(points, normals, params)
	test.That(t, h, test.ShouldNotEqual, NilHandle)
	defer DestroyPath(h)
	test.That(t, PathCount(h), test.ShouldEqual, 20)

	test.That(t, PathApplyWeave(h, int32(2), 0.002, 2), test.ShouldEqual, Success)
	test.That(t, PathResample(h, 0.004), test.ShouldEqual, Success)
	test.That(t, PathSmooth(h, 3), test.ShouldEqual, Success)
	test.That(t, PathSmooth(h, 1), test.ShouldEqual, ErrInvalidParam)

	out := make([]WeldPointData, PathCount(h))
	test.That(t, PathPoints(h, out), test.ShouldEqual, Success)
	test.That(t, out[0].ArcLength, test.ShouldEqual, float32(0))
	for i := 1; i < len(out); i++ {
		test.That(t, out[i].ArcLength, test.ShouldBeGreaterThanOrEqualTo, out[i-1].ArcLength)
	}

	robot := CreateRobot(RobotUR5)
	defer DestroyRobot(robot)
	joints := make([]float64, PathCount(h)*kinematics.NumJoints)
	reachable := make([]bool, PathCount(h))
	test.That(t, PathToJoints(h, robot, 0.015, joints, reachable), test.ShouldEqual, Success)
	test.That(t, PathToJoints(h, NilHandle, 0.015, joints, reachable), test.ShouldEqual, ErrInvalidHandle)
}

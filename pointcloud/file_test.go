package pointcloud

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestPLYRoundTrip(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cloud := New()
	cloud.Append(r3.Vector{X: 0.5, Y: -1.25, Z: 3})
	cloud.Append(r3.Vector{X: 0, Y: 0, Z: 0})
	test.That(t, cloud.SetNormals([]r3.Vector{{Z: 1}, {X: 1}}), test.ShouldBeNil)
	test.That(t, cloud.SetColors([]color.NRGBA{{R: 255, A: 255}, {G: 128, A: 255}}), test.ShouldBeNil)

	fn := filepath.Join(t.TempDir(), "cloud.ply")
	test.That(t, WriteToPLYFile(cloud, fn), test.ShouldBeNil)

	back, err := NewFromPLYFile(fn, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.Size(), test.ShouldEqual, 2)
	test.That(t, back.HasNormals(), test.ShouldBeTrue)
	test.That(t, back.HasColors(), test.ShouldBeTrue)
	test.That(t, back.Position(0).X, test.ShouldAlmostEqual, 0.5, 1e-6)
	test.That(t, back.Normal(1).X, test.ShouldAlmostEqual, 1, 1e-6)
	test.That(t, back.Color(0).R, test.ShouldEqual, 255)
}

func TestPCDRoundTrip(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cloud := New()
	cloud.Append(r3.Vector{X: 1, Y: 2, Z: 3})
	cloud.Append(r3.Vector{X: -4, Y: 5, Z: -6})

	fn := filepath.Join(t.TempDir(), "cloud.pcd")
	test.That(t, WriteToPCDFile(cloud, fn), test.ShouldBeNil)

	back, err := NewFromPCDFile(fn, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.Size(), test.ShouldEqual, 2)
	test.That(t, back.Position(1).Y, test.ShouldAlmostEqual, 5, 1e-6)
}

func TestFileErrors(t *testing.T) {
	logger := golog.NewTestLogger(t)

	_, err := NewFromPLYFile(filepath.Join(t.TempDir(), "missing.ply"), logger)
	test.That(t, os.IsNotExist(err), test.ShouldBeTrue)

	bad := filepath.Join(t.TempDir(), "bad.ply")
	test.That(t, os.WriteFile(bad, []byte("not a ply\n"), 0o600), test.ShouldBeNil)
	_, err = NewFromPLYFile(bad, logger)
	test.That(t, errors.Is(err, ErrMalformedFile), test.ShouldBeTrue)

	_, err = NewFromFile("cloud.xyz", logger)
	test.That(t, err, test.ShouldNotBeNil)
}

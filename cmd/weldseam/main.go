// Command weldseam drives the welding core from the shell: reconstruct a
// surface mesh from a scanned point cloud, or plan a joint trajectory along
// the mesh boundary for a preset robot.
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/urfave/cli/v2"

	"github.com/smr-robotics/weldcore/kinematics"
	"github.com/smr-robotics/weldcore/mesh"
	"github.com/smr-robotics/weldcore/pointcloud"
	"github.com/smr-robotics/weldcore/weldpath"
)

var logger = golog.NewDevelopmentLogger("weldseam")

func main() {
	app := &cli.App{
		Name:    "weldseam",
		Usage:   "point cloud to weld trajectory pipeline",
		Version: "1.0.0",
		Commands: []*cli.Command{
			reconstructCommand(),
			planCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

func reconstructCommand() *cli.Command {
	return &cli.Command{
		Name:      "reconstruct",
		Usage:     "clean a scanned point cloud and reconstruct a surface mesh",
		ArgsUsage: "<cloud.ply|cloud.pcd> <out.ply|out.obj>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "depth", Value: 6, Usage: "grid resolution exponent (6-12)"},
			&cli.Float64Flag{Name: "scale", Value: 1.2, Usage: "bounding box expansion (1.0-1.5)"},
			&cli.Float64Flag{Name: "voxel", Value: 0, Usage: "voxel downsample side in meters (0 to skip)"},
			&cli.IntFlag{Name: "normal-k", Value: 20, Usage: "neighborhood size for normal estimation"},
			&cli.IntFlag{Name: "outlier-k", Value: 0, Usage: "neighborhood size for outlier removal (0 to skip)"},
			&cli.Float64Flag{Name: "outlier-ratio", Value: 2.0, Usage: "outlier stddev ratio"},
			&cli.Float64Flag{Name: "density-quantile", Value: 0, Usage: "drop vertices below this density quantile"},
			&cli.Float64Flag{Name: "simplify", Value: 0, Usage: "decimate toward this triangle ratio (0 to skip)"},
			&cli.Float64SliceFlag{Name: "viewpoint", Usage: "x,y,z viewpoint for normal orientation"},
		},
		Action: runReconstruct,
	}
}

func runReconstruct(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("need an input cloud and an output mesh path", 1)
	}
	in, out := c.Args().Get(0), c.Args().Get(1)

	cloud, err := pointcloud.NewFromFile(in, logger)
	if err != nil {
		return err
	}
	logger.Infow("loaded cloud", "points", cloud.Size())

	if voxel := c.Float64("voxel"); voxel > 0 {
		if err := cloud.DownsampleVoxel(voxel); err != nil {
			return err
		}
		logger.Infow("downsampled", "points", cloud.Size())
	}
	if k := c.Int("outlier-k"); k > 0 {
		if err := cloud.RemoveStatisticalOutliers(k, c.Float64("outlier-ratio")); err != nil {
			return err
		}
		logger.Infow("removed outliers", "points", cloud.Size())
	}
	if !cloud.HasNormals() {
		if err := cloud.EstimateNormalsKNN(c.Int("normal-k")); err != nil {
			return err
		}
	}
	if vp := c.Float64Slice("viewpoint"); len(vp) == 3 {
		cloud.OrientNormalsTowards(r3.Vector{X: vp[0], Y: vp[1], Z: vp[2]})
	}

	m, err := mesh.ReconstructSurface(cloud, mesh.ReconstructionConfig{
		Depth: c.Int("depth"),
		Scale: c.Float64("scale"),
	})
	if err != nil {
		return err
	}
	logger.Infow("reconstructed", "vertices", m.VertexCount(), "triangles", m.TriangleCount())

	if q := c.Float64("density-quantile"); q > 0 {
		if err := m.RemoveLowDensity(q); err != nil {
			return err
		}
	}
	if ratio := c.Float64("simplify"); ratio > 0 {
		if err := m.Simplify(ratio); err != nil {
			return err
		}
		logger.Infow("simplified", "triangles", m.TriangleCount())
	}

	if len(out) > 4 && out[len(out)-4:] == ".obj" {
		return m.SaveOBJ(out)
	}
	return m.SavePLY(out)
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "plan a joint trajectory along a mesh boundary",
		ArgsUsage: "<mesh.ply> <trajectory.csv>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "robot", Value: "UR5", Usage: "robot preset (UR5, UR10, KUKA KR6 R700, Doosan M1013)"},
			&cli.Float64Flag{Name: "step", Value: 0.005, Usage: "resample step in meters"},
			&cli.Float64Flag{Name: "standoff", Value: 0.015, Usage: "tool standoff in meters"},
			&cli.IntFlag{Name: "smooth-window", Value: 0, Usage: "smoothing window (0 to skip)"},
			&cli.StringFlag{Name: "weave", Value: "none", Usage: "weave kind: none, zigzag, circular, triangle, figure8"},
			&cli.Float64Flag{Name: "weave-amplitude", Value: 0.002, Usage: "weave amplitude in meters"},
			&cli.Float64Flag{Name: "weave-frequency", Value: 2.0, Usage: "weave frequency"},
		},
		Action: runPlan,
	}
}

var weaveKinds = map[string]weldpath.WeaveKind{
	"none":     weldpath.WeaveNone,
	"zigzag":   weldpath.WeaveZigzag,
	"circular": weldpath.WeaveCircular,
	"triangle": weldpath.WeaveTriangle,
	"figure8":  weldpath.WeaveFigureEight,
}

func runPlan(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("need an input mesh and an output trajectory path", 1)
	}
	in, out := c.Args().Get(0), c.Args().Get(1)

	weave, ok := weaveKinds[c.String("weave")]
	if !ok {
		return cli.Exit(fmt.Sprintf("unknown weave kind %q", c.String("weave")), 1)
	}
	model, err := kinematics.NewPresetModel(kinematics.Preset(c.String("robot")))
	if err != nil {
		return err
	}

	m, err := mesh.LoadPLY(in, logger)
	if err != nil {
		return err
	}

	params := weldpath.DefaultParams()
	params.StepSize = c.Float64("step")
	params.StandoffDistance = c.Float64("standoff")
	path, err := weldpath.NewPathFromMeshBoundary(m, params)
	if err != nil {
		return err
	}
	logger.Infow("extracted boundary", "points", path.Size(), "length", path.Length())

	if err := path.Resample(params.StepSize); err != nil {
		return err
	}
	if w := c.Int("smooth-window"); w >= 3 {
		if err := path.Smooth(w); err != nil {
			return err
		}
	}
	if weave != weldpath.WeaveNone {
		path.ApplyWeave(weave, c.Float64("weave-amplitude"), c.Float64("weave-frequency"))
	}

	trajectory, err := path.ToJointTrajectory(model, params.StandoffDistance)
	if err != nil {
		return err
	}

	reachable := 0
	for _, ok := range trajectory.Reachable {
		if ok {
			reachable++
		}
	}
	logger.Infow("planned trajectory", "steps", trajectory.Size(), "reachable", reachable)
	return writeTrajectoryCSV(out, path, trajectory)
}

func writeTrajectoryCSV(fn string, path *weldpath.Path, jt *weldpath.JointTrajectory) (err error) {
	f, err := os.Create(fn) //nolint:gosec
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	header := []string{"arc_length", "reachable", "j0", "j1", "j2", "j3", "j4", "j5"}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < jt.Size(); i++ {
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatFloat(path.Point(i).ArcLength, 'g', -1, 64))
		row = append(row, strconv.FormatBool(jt.Reachable[i]))
		for _, v := range jt.Joints[i] {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

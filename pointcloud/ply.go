package pointcloud

import (
	"bufio"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// ErrMalformedFile reports a file that opened fine but does not parse as its
// claimed format.
var ErrMalformedFile = errors.New("malformed file")

// NewFromFile reads a point cloud from the given file, dispatching on
// extension. ASCII PLY and PCD are supported.
func NewFromFile(fn string, logger golog.Logger) (*PointCloud, error) {
	switch filepath.Ext(fn) {
	case ".ply":
		return NewFromPLYFile(fn, logger)
	case ".pcd":
		return NewFromPCDFile(fn, logger)
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
}

// NewFromPLYFile reads an ASCII PLY point cloud. Vertex positions are
// required; nx/ny/nz and red/green/blue properties populate the normal and
// color channels when present.
func NewFromPLYFile(fn string, logger golog.Logger) (*PointCloud, error) {
	f, err := os.Open(fn) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	scanner := bufio.NewScanner(f)
	vertexCount := -1
	hasNormals := false
	hasColors := false
	inHeader := true

	for inHeader && scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "element":
			if len(fields) == 3 && fields[1] == "vertex" {
				vertexCount, err = strconv.Atoi(fields[2])
				if err != nil {
					return nil, errors.Wrapf(ErrMalformedFile, "bad vertex count %q", fields[2])
				}
			}
		case "property":
			if len(fields) == 3 {
				switch fields[2] {
				case "nx":
					hasNormals = true
				case "red":
					hasColors = true
				}
			}
		case "end_header":
			inHeader = false
		}
	}
	if inHeader || vertexCount < 0 {
		return nil, errors.Wrap(ErrMalformedFile, "PLY header incomplete")
	}

	cloud := NewWithPrealloc(vertexCount)
	var normals []r3.Vector
	var colors []color.NRGBA
	if hasNormals {
		normals = make([]r3.Vector, 0, vertexCount)
	}
	if hasColors {
		colors = make([]color.NRGBA, 0, vertexCount)
	}

	for i := 0; i < vertexCount; i++ {
		if !scanner.Scan() {
			return nil, errors.Wrapf(ErrMalformedFile, "PLY ends after %d of %d vertices", i, vertexCount)
		}
		fields := strings.Fields(scanner.Text())
		vals, err := parseFloats(fields)
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedFile, "PLY vertex %d: %v", i, err)
		}
		need := 3
		if hasNormals {
			need += 3
		}
		if hasColors {
			need += 3
		}
		if len(vals) < need {
			return nil, errors.Wrapf(ErrMalformedFile, "PLY vertex %d has %d fields, want %d", i, len(vals), need)
		}
		cloud.Append(r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]})
		off := 3
		if hasNormals {
			normals = append(normals, r3.Vector{X: vals[off], Y: vals[off+1], Z: vals[off+2]})
			off += 3
		}
		if hasColors {
			colors = append(colors, color.NRGBA{
				R: uint8(vals[off]), G: uint8(vals[off+1]), B: uint8(vals[off+2]), A: 255,
			})
		}
	}

	if hasNormals {
		if err := cloud.SetNormals(normals); err != nil {
			return nil, err
		}
	}
	if hasColors {
		if err := cloud.SetColors(colors); err != nil {
			return nil, err
		}
	}
	logger.Debugf("read %d points from %s", cloud.Size(), fn)
	return cloud, nil
}

// WriteToPLYFile writes the cloud as ASCII PLY, including normal and color
// properties when the channels are present.
func WriteToPLYFile(cloud *PointCloud, fn string) (err error) {
	f, err := os.Create(fn) //nolint:gosec
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "ply\nformat ascii 1.0\nelement vertex %d\n", cloud.Size())
	fmt.Fprintf(w, "property float x\nproperty float y\nproperty float z\n")
	if cloud.HasNormals() {
		fmt.Fprintf(w, "property float nx\nproperty float ny\nproperty float nz\n")
	}
	if cloud.HasColors() {
		fmt.Fprintf(w, "property uchar red\nproperty uchar green\nproperty uchar blue\n")
	}
	fmt.Fprintf(w, "end_header\n")

	for i := 0; i < cloud.Size(); i++ {
		p := cloud.Position(i)
		fmt.Fprintf(w, "%g %g %g", p.X, p.Y, p.Z)
		if cloud.HasNormals() {
			n := cloud.Normal(i)
			fmt.Fprintf(w, " %g %g %g", n.X, n.Y, n.Z)
		}
		if cloud.HasColors() {
			c := cloud.Color(i)
			fmt.Fprintf(w, " %d %d %d", c.R, c.G, c.B)
		}
		fmt.Fprintf(w, "\n")
	}
	return w.Flush()
}

func parseFloats(fields []string) ([]float64, error) {
	vals := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Errorf("field %q is not a number", s)
		}
		vals[i] = v
	}
	return vals, nil
}

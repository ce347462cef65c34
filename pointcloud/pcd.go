package pointcloud

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// NewFromPCDFile reads an ASCII PCD point cloud: a header carrying
// "POINTS N" and "DATA ascii", then N lines of x y z.
func NewFromPCDFile(fn string, logger golog.Logger) (*PointCloud, error) {
	f, err := os.Open(fn) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	scanner := bufio.NewScanner(f)
	pointCount := -1
	inHeader := true

	for inHeader && scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "POINTS":
			if len(fields) < 2 {
				return nil, errors.Wrap(ErrMalformedFile, "PCD POINTS line missing count")
			}
			pointCount, err = strconv.Atoi(fields[1])
			if err != nil {
				return nil, errors.Wrapf(ErrMalformedFile, "bad point count %q", fields[1])
			}
		case "DATA":
			if len(fields) > 1 && fields[1] != "ascii" {
				return nil, errors.Wrapf(ErrMalformedFile, "unsupported PCD data format %q", fields[1])
			}
			inHeader = false
		}
	}
	if inHeader || pointCount < 0 {
		return nil, errors.Wrap(ErrMalformedFile, "PCD header incomplete")
	}

	cloud := NewWithPrealloc(pointCount)
	for i := 0; i < pointCount; i++ {
		if !scanner.Scan() {
			return nil, errors.Wrapf(ErrMalformedFile, "PCD ends after %d of %d points", i, pointCount)
		}
		vals, err := parseFloats(strings.Fields(scanner.Text()))
		if err != nil || len(vals) < 3 {
			return nil, errors.Wrapf(ErrMalformedFile, "PCD point %d", i)
		}
		cloud.Append(r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]})
	}
	logger.Debugf("read %d points from %s", cloud.Size(), fn)
	return cloud, nil
}

// WriteToPCDFile writes positions as ASCII PCD.
func WriteToPCDFile(cloud *PointCloud, fn string) (err error) {
	f, err := os.Create(fn) //nolint:gosec
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	w := bufio.NewWriter(f)
	n := cloud.Size()
	fmt.Fprintf(w, "# .PCD v0.7 - Point Cloud Data file format\n")
	fmt.Fprintf(w, "VERSION 0.7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\n")
	fmt.Fprintf(w, "WIDTH %d\nHEIGHT 1\nVIEWPOINT 0 0 0 1 0 0 0\nPOINTS %d\nDATA ascii\n", n, n)
	for i := 0; i < n; i++ {
		p := cloud.Position(i)
		fmt.Fprintf(w, "%g %g %g\n", p.X, p.Y, p.Z)
	}
	return w.Flush()
}

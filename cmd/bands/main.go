// Command bands prints the band structure of a topological lattice model as CSV.
//
// Example:
//
//	bands -model=haldane -axis=phi -samples=120
package main

import (
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/fumin/topoband"
	"github.com/fumin/topoband/band"
)

var (
	configPath = flag.String("config", "", "YAML file with the model parameters")
	model      = flag.String("model", modelBHZ, "model, one of bhz, haldane, qwz and qwzmulti")
	samples    = flag.Int("samples", 0, "number of grid points, zero for the model default")
	axis       = flag.String("axis", axisMomentum, "swept variable, ky or a Haldane parameter t0, t1, t2 and phi")
	ky         = flag.Float64("ky", 0, "momentum of a Haldane parameter sweep")
	index      = flag.Int("index", -1, "print only the spectrum at this grid index")
	workers    = flag.Int("workers", 0, "number of parallel diagonalizations, zero for GOMAXPROCS")
	generator  = topoband.TauZ
)

func init() {
	flag.TextVar(&generator, "generator", topoband.TauZ, "BHZ spin mixing generator, one of tau_0, tau_x, tau_y and tau_z")
}

func sweep(c Config, opt band.Options) (*band.Bands, error) {
	if c.Axis != axisMomentum {
		a, err := topoband.ParseAxis(c.Axis)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		grid := a.Grid()
		if c.Samples > 0 {
			grid = band.Linspace(grid[0], grid[len(grid)-1], c.Samples)
		}
		return c.Haldane.SweepAxis(a, grid, c.Ky, opt)
	}

	switch c.Model {
	case modelBHZ:
		return c.BHZ.Bands(c.samples(), opt)
	case modelHaldane:
		return c.Haldane.Bands(c.samples(), opt)
	case modelQWZ:
		return c.QWZ.Bands(c.samples(), opt)
	case modelQWZMulti:
		return c.QWZMulti.Bands(c.samples(), opt)
	}
	return nil, errors.Errorf("unknown model %q", c.Model)
}

// writeBands writes one row per grid point, the grid value followed by the energies and the edge flags if any.
func writeBands(w io.Writer, b *band.Bands) error {
	cw := csv.NewWriter(w)

	header := []string{"x"}
	for n := range b.Dim() {
		header = append(header, "e"+strconv.Itoa(n))
	}
	if b.Edge != nil {
		for n := range b.Dim() {
			header = append(header, "edge"+strconv.Itoa(n))
		}
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "")
	}

	row := make([]string, 0, len(header))
	for i, x := range b.Grid {
		row = row[:0]
		row = append(row, strconv.FormatFloat(x, 'f', -1, 64))
		for _, e := range b.At(i) {
			row = append(row, strconv.FormatFloat(e, 'f', -1, 64))
		}
		if b.Edge != nil {
			for _, edge := range b.Edge[i] {
				row = append(row, strconv.FormatBool(edge))
			}
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// writeSpectrum writes the spectrum at grid index i as rows of band index and energy.
func writeSpectrum(w io.Writer, b *band.Bands, i int) error {
	if i < 0 || i >= b.Samples() {
		return errors.Errorf("index %d samples %d", i, b.Samples())
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"n", "e"}); err != nil {
		return errors.Wrap(err, "")
	}
	for n, e := range b.At(i) {
		if err := cw.Write([]string{strconv.Itoa(n), strconv.FormatFloat(e, 'f', -1, 64)}); err != nil {
			return errors.Wrap(err, "")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// run computes the sweep described by c and writes it to w.
func run(w io.Writer, c Config, opt band.Options, i int) error {
	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "")
	}

	start := time.Now()
	b, err := sweep(c, opt)
	if err != nil {
		return errors.Wrap(err, c.String())
	}
	lo, hi := b.Bounds()
	log.Printf("%s axis %s samples %d dim %d energies [%f, %f] %s", c, c.Axis, b.Samples(), b.Dim(), lo, hi, time.Since(start))

	if i >= 0 {
		if err := writeSpectrum(w, b, i); err != nil {
			return errors.Wrap(err, "")
		}
		return nil
	}
	if err := writeBands(w, b); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// config reads the config file if any, and overrides it with the flags set on the command line.
func config() (Config, error) {
	c := DefaultConfig()
	if *configPath != "" {
		var err error
		c, err = ReadConfig(*configPath)
		if err != nil {
			return Config{}, errors.Wrap(err, "")
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			c.Model = *model
		case "samples":
			c.Samples = *samples
		case "axis":
			c.Axis = *axis
		case "ky":
			c.Ky = *ky
		case "generator":
			c.BHZ.Generator = generator
		}
	})
	return c, nil
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	c, err := config()
	if err != nil {
		return errors.Wrap(err, "")
	}

	opt := band.NewOptions()
	if *workers > 0 {
		opt = opt.Workers(*workers)
	}
	if err := run(os.Stdout, c, opt, *index); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

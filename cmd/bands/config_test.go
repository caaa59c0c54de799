package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/fumin/topoband"
	"github.com/fumin/topoband/band"
)

func TestReadConfig(t *testing.T) {
	t.Parallel()
	const doc = `
model: haldane
samples: 30
axis: phi
ky: 0.5
haldane:
  t2: 0.1
  nx: 6
bhz:
  generator: tau_y
  sites: 3
`
	fpath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(fpath, []byte(doc), 0644); err != nil {
		t.Fatalf("%+v", err)
	}
	c, err := ReadConfig(fpath)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("%+v", err)
	}

	if c.Model != modelHaldane || c.Samples != 30 || c.Axis != "phi" || c.Ky != 0.5 {
		t.Fatalf("%#v", c)
	}
	haldane := topoband.DefaultHaldane()
	haldane.T2, haldane.Nx = 0.1, 6
	if c.Haldane != haldane {
		t.Fatalf("%#v, expected %#v", c.Haldane, haldane)
	}
	bhz := topoband.DefaultBHZ()
	bhz.Generator, bhz.Sites = topoband.TauY, 3
	if c.BHZ != bhz {
		t.Fatalf("%#v, expected %#v", c.BHZ, bhz)
	}
	if c.QWZ != topoband.DefaultQWZRibbon() || c.QWZMulti != topoband.DefaultQWZMultilayer() {
		t.Fatalf("%#v %#v", c.QWZ, c.QWZMulti)
	}

	if err := os.WriteFile(fpath, []byte("bhz:\n  generator: sigma_x\n"), 0644); err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := ReadConfig(fpath); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		edit  func(c *Config)
		valid bool
	}{
		{name: "default", edit: func(c *Config) {}, valid: true},
		{name: "haldane axis", edit: func(c *Config) { c.Model, c.Axis = modelHaldane, "t1" }, valid: true},
		{name: "unknown model", edit: func(c *Config) { c.Model = "kane-mele" }, valid: false},
		{name: "negative samples", edit: func(c *Config) { c.Samples = -1 }, valid: false},
		{name: "axis of bhz", edit: func(c *Config) { c.Axis = "t0" }, valid: false},
		{name: "unknown axis", edit: func(c *Config) { c.Model, c.Axis = modelHaldane, "kx" }, valid: false},
		{name: "bhz sites", edit: func(c *Config) { c.BHZ.Sites = 0 }, valid: false},
		{name: "qwz nx", edit: func(c *Config) { c.Model, c.QWZ.Nx = modelQWZ, 0 }, valid: false},
		{name: "other model size", edit: func(c *Config) { c.Model, c.QWZ.Nx = modelQWZMulti, 0 }, valid: true},
		{name: "layers", edit: func(c *Config) { c.Model, c.QWZMulti.Layers = modelQWZMulti, 0 }, valid: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			c := DefaultConfig()
			test.edit(&c)
			if err := c.Validate(); (err == nil) != test.valid {
				t.Fatalf("%v, expected %t", err, test.valid)
			}
		})
	}
}

func TestRun(t *testing.T) {
	t.Parallel()
	tests := []struct {
		config Config
		rows   int
		cols   int
	}{
		{config: Config{Model: modelBHZ, Samples: 5, Axis: axisMomentum, BHZ: topoband.BHZ{C: 0.5, T0: -1.2, Generator: topoband.TauZ, Sites: 2}}, rows: 5, cols: 1 + 8 + 8},
		{config: Config{Model: modelHaldane, Samples: 4, Axis: axisMomentum, Haldane: topoband.Haldane{T1: 1, T2: 0.3, Phi: 1, Nx: 3}}, rows: 4, cols: 1 + 6},
		{config: Config{Model: modelHaldane, Samples: 7, Axis: "t2", Ky: 0.3, Haldane: topoband.Haldane{T1: 1, Phi: 1, Nx: 2}}, rows: 7, cols: 1 + 4},
		{config: Config{Model: modelQWZ, Samples: 3, Axis: axisMomentum, QWZ: topoband.QWZRibbon{Nx: 4, T0: 1}}, rows: 3, cols: 1 + 8},
		{config: Config{Model: modelQWZMulti, Axis: axisMomentum, QWZMulti: topoband.QWZMultilayer{Layers: 2, C: 0.5, T0: 1}}, rows: 200, cols: 1 + 4},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s %s", test.config.Model, test.config.Axis), func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			if err := run(&buf, test.config, band.NewOptions().Workers(2), -1); err != nil {
				t.Fatalf("%+v", err)
			}
			records, err := csv.NewReader(&buf).ReadAll()
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if len(records) != 1+test.rows {
				t.Fatalf("%d, expected %d", len(records), 1+test.rows)
			}
			if len(records[0]) != test.cols || records[0][0] != "x" || records[0][1] != "e0" {
				t.Fatalf("%v", records[0])
			}
			for _, record := range records[1:] {
				prev, err := strconv.ParseFloat(record[1], 64)
				if err != nil {
					t.Fatalf("%+v", err)
				}
				for _, s := range record[2:] {
					if s == "true" || s == "false" {
						break
					}
					e, err := strconv.ParseFloat(s, 64)
					if err != nil {
						t.Fatalf("%+v", err)
					}
					if e < prev {
						t.Fatalf("%v", record)
					}
					prev = e
				}
			}
		})
	}
}

func TestRunIndex(t *testing.T) {
	t.Parallel()
	c := DefaultConfig()
	c.Model = modelQWZMulti
	c.Samples = 3
	c.QWZMulti = topoband.QWZMultilayer{Layers: 2, C: 0.5, T0: -2, Kx: 0}

	// The middle of a 3 point grid is ky = 0.
	var buf bytes.Buffer
	if err := run(&buf, c, band.NewOptions(), 1); err != nil {
		t.Fatalf("%+v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(records) != 5 || records[0][0] != "n" || records[0][1] != "e" {
		t.Fatalf("%v", records)
	}
	top, err := strconv.ParseFloat(records[4][1], 64)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if expected := 1.9142135623730951; top-expected > 1e-10 || expected-top > 1e-10 {
		t.Fatalf("%f, expected %f", top, expected)
	}

	if err := run(&buf, c, band.NewOptions(), 3); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMain(m *testing.M) {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	m.Run()
}

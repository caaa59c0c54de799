package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fumin/topoband"
)

const (
	modelBHZ      = "bhz"
	modelHaldane  = "haldane"
	modelQWZ      = "qwz"
	modelQWZMulti = "qwzmulti"

	// axisMomentum sweeps the momentum along the periodic direction.
	axisMomentum = "ky"
)

// defaultSamples are the momentum grid sizes used when no sample count is configured.
var defaultSamples = map[string]int{
	modelBHZ:      201,
	modelHaldane:  100,
	modelQWZ:      100,
	modelQWZMulti: 200,
}

// Config is a complete description of one band structure computation.
// Model sections that are absent in a config file keep their default parameters.
type Config struct {
	Model string `yaml:"model"`
	// Samples is the number of grid points, zero for the model default.
	Samples int `yaml:"samples"`
	// Axis is either "ky" or a Haldane parameter axis.
	Axis string `yaml:"axis"`
	// Ky is the fixed momentum of a Haldane parameter sweep.
	Ky float64 `yaml:"ky"`

	BHZ      topoband.BHZ           `yaml:"bhz"`
	Haldane  topoband.Haldane       `yaml:"haldane"`
	QWZ      topoband.QWZRibbon     `yaml:"qwz"`
	QWZMulti topoband.QWZMultilayer `yaml:"qwzmulti"`
}

func DefaultConfig() Config {
	return Config{
		Model:    modelBHZ,
		Axis:     axisMomentum,
		BHZ:      topoband.DefaultBHZ(),
		Haldane:  topoband.DefaultHaldane(),
		QWZ:      topoband.DefaultQWZRibbon(),
		QWZMulti: topoband.DefaultQWZMultilayer(),
	}
}

// ReadConfig reads a YAML config on top of the defaults.
func ReadConfig(fpath string) (Config, error) {
	c := DefaultConfig()
	b, err := os.ReadFile(fpath)
	if err != nil {
		return Config{}, errors.Wrap(err, "")
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, errors.Wrap(err, fpath)
	}
	return c, nil
}

func (c Config) Validate() error {
	if _, ok := defaultSamples[c.Model]; !ok {
		return errors.Errorf("unknown model %q", c.Model)
	}
	if c.Samples < 0 {
		return errors.Errorf("samples %d", c.Samples)
	}
	if c.Axis != axisMomentum {
		if c.Model != modelHaldane {
			return errors.Errorf("axis %q for model %s", c.Axis, c.Model)
		}
		if _, err := topoband.ParseAxis(c.Axis); err != nil {
			return errors.Wrap(err, "")
		}
	}

	var err error
	switch c.Model {
	case modelBHZ:
		err = c.BHZ.Validate()
	case modelHaldane:
		err = c.Haldane.Validate()
	case modelQWZ:
		err = c.QWZ.Validate()
	case modelQWZMulti:
		err = c.QWZMulti.Validate()
	}
	if err != nil {
		return errors.Wrap(err, c.Model)
	}
	return nil
}

// samples returns the configured number of grid points.
func (c Config) samples() int {
	if c.Samples > 0 {
		return c.Samples
	}
	return defaultSamples[c.Model]
}

// String describes the model parameters.
func (c Config) String() string {
	switch c.Model {
	case modelBHZ:
		return fmt.Sprintf("%s %+v", c.Model, c.BHZ)
	case modelHaldane:
		return fmt.Sprintf("%s %+v", c.Model, c.Haldane)
	case modelQWZ:
		return fmt.Sprintf("%s %+v", c.Model, c.QWZ)
	case modelQWZMulti:
		return fmt.Sprintf("%s %+v", c.Model, c.QWZMulti)
	}
	return c.Model
}

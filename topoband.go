// Package topoband builds tight-binding Hamiltonians of topological lattice models
// on ribbons and multilayer stacks, and computes their band structures.
//
// Models:
//   - BHZ, the Bernevig-Hughes-Zhang model on a strip, with edge state detection.
//   - Haldane, the Haldane honeycomb model on a ribbon.
//   - QWZRibbon, the Qi-Wu-Zhang model on a ribbon with boundary potentials.
//   - QWZMultilayer, a stack of coupled Qi-Wu-Zhang layers.
//
// Every Hamiltonian is assembled block by block, and every hopping block is written together with its
// conjugate transpose, so that the result is Hermitian by construction.
package topoband

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/fumin/topoband/band"
)

// momenta returns samples momenta over [-π, π].
func momenta(samples int) ([]float64, error) {
	if samples < 1 {
		return nil, errors.Errorf("samples %d", samples)
	}
	return band.Momenta(samples), nil
}

func sweepOptions(options []band.Options) band.Options {
	if len(options) > 0 {
		return options[0]
	}
	return band.NewOptions()
}

func mustValid(err error) {
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
}

// Package chargex drives the GLOBAL charge-exchange code as an external
// process. It writes GLOBAL's fixed-format input record, runs the executable
// and parses the charge-state distribution and exit energy from its output.
package chargex

import (
	"errors"
	"fmt"
	"strconv"
)

// MaxElectrons is the largest number of bound electrons GLOBAL accepts.
const MaxElectrons = 28

// NumChargeStates is the number of charge-state probabilities GLOBAL reports.
const NumChargeStates = 10

var (
	ErrExecutableNotFound = errors.New("GLOBAL executable not found")
	ErrOutputMissing      = errors.New("GLOBAL output not found")
	ErrInputMismatch      = errors.New("GLOBAL did not use the supplied input")
	ErrMalformedOutput    = errors.New("malformed GLOBAL output")
)

// Input is one projectile/target combination.
type Input struct {
	ProjectileA      float64 // mass number
	ProjectileZ      int     // atomic number
	ProjectileQ      float64 // charge state [e]
	EnergyPerNucleon float64 // kinetic energy [eV/u]

	TargetA  float64 // standard atomic weight
	TargetZ  int     // atomic number
	TargetDt float64 // areal density [mg/cm^2]
}

// Electrons returns the number of bound electrons, capped at MaxElectrons.
func (in Input) Electrons() float64 {
	e := float64(in.ProjectileZ) - in.ProjectileQ
	if e > MaxElectrons {
		return MaxElectrons
	}
	return e
}

const inputTemplate = ` GLOBAL Input file:
 Projectile:    A          Z        Q          Energy(MeV/u)
               %s        %d       %s             %s
 Target:        A          Z    Dt(mg/cm^2)
              %s        %d      %s
 Options:     I_CHAR    I_LOOP   I_OUTP     I_WR
                0          0        1         2
 Q-states:
    0  1  2  3  4  5  6  7  8  9


 Comments:
 Options: I_CHAR: =0  ====> charge state at target exit
                  =1  ====> equilibrium charge state
                  =2  ====> charge-state evolution
          I_LOOP: =0  ====> no loop
                  =1  ====> loop over Z(projectile)
                  =2  ====>           incident energy
                  =3  ====>           incident Q state
                  =4  ====>           Z(target)
                  =5  ====>           D(target)
          I_OUTP: =0  ====> output on screen
                  =1  ====>        on file
                  =2  ====>        on screen/file
          I_WR:   =0,1,2,3 multiplies output steps by 10,100,1000,10000
                  reasonable values: I_WR=1,2,3
`

// FormatInput renders the GLOBAL input file for in. The energy column is in
// MeV/u; the charge column holds the number of bound electrons.
func FormatInput(in Input) string {
	return fmt.Sprintf(inputTemplate,
		num(in.ProjectileA), in.ProjectileZ, num(in.Electrons()), num(in.EnergyPerNucleon/1e6),
		num(in.TargetA), in.TargetZ, num(in.TargetDt),
	)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

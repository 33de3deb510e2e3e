/*
 * registry.go, part of gomd.
 *
 *
 * Copyright 2024 Daniel Molina <dmolina{at}udecDOTcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package units maps between the unit system a trajectory file is stored in
//(its native units) and the unit system the rest of a program assumes (its
//base units). Each reader or writer carries a Handler built from the
//format's native-unit map and an explicit base-unit Config; conversions are
//in place, on the buffers the trajectory frames already own.
package units

import "fmt"

//Registry resolves the multiplicative factor that converts a value of the
//given physical quantity from one unit to another. The table behind it is
//a collaborator; anything that can answer the lookup will do.
type Registry interface {
	Factor(quantity, from, to string) (float64, error)
}

//Table is a Registry backed by a plain map: for each quantity, the value of
//one canonical unit expressed in every supported unit. The factor from u1
//to u2 is then tab[u2]/tab[u1].
type Table map[string]map[string]float64

//Factor returns the factor converting a value of quantity from unit "from"
//to unit "to". Units known to the table but filed under a different
//quantity give an IncompatibleUnitError; units nobody heard of give an
//UnknownUnitError.
func (T Table) Factor(quantity, from, to string) (float64, error) {
	tab, ok := T[quantity]
	if !ok {
		return 0, &UnknownUnitError{quantity, "", nil}
	}
	ff, ok := tab[from]
	if !ok {
		return 0, T.missing(quantity, from)
	}
	ft, ok := tab[to]
	if !ok {
		return 0, T.missing(quantity, to)
	}
	return ft / ff, nil
}

//missing classifies a unit absent from a quantity's table: present under
//some other quantity means incompatible, absent everywhere means unknown.
func (T Table) missing(quantity, unit string) error {
	for q, tab := range T {
		if q == quantity {
			continue
		}
		if _, ok := tab[unit]; ok {
			return &IncompatibleUnitError{quantity, unit, nil}
		}
	}
	return &UnknownUnitError{quantity, unit, nil}
}

//Conversion constants. AKMA is the Charmm time unit; lengths are anchored
//on the Angstrom and times on the picosecond.
const (
	A2Nm    = 0.1
	A2Pm    = 100.0
	A2Bohr  = 1.889725989
	Ps2Fs   = 1000.0
	Ps2Ns   = 0.001
	Ps2AKMA = 1 / 4.888821e-2
)

//Default returns the built-in table with the units the bundled trajectory
//formats use. The canonical units are the Angstrom and the picosecond.
func Default() Table {
	return Table{
		"length": {
			"A":        1.0,
			"Angstrom": 1.0,
			"nm":       A2Nm,
			"pm":       A2Pm,
			"bohr":     A2Bohr,
		},
		"time": {
			"ps":   1.0,
			"fs":   Ps2Fs,
			"ns":   Ps2Ns,
			"AKMA": Ps2AKMA,
		},
	}
}

//UnknownUnitError reports a unit (or a whole quantity) missing from the
//registry.
type UnknownUnitError struct {
	quantity string
	unit     string
	deco     []string
}

func (err *UnknownUnitError) Error() string {
	if err.unit == "" {
		return fmt.Sprintf("gomd/units: unknown quantity %q", err.quantity)
	}
	return fmt.Sprintf("gomd/units: unknown %s unit %q", err.quantity, err.unit)
}

//Decorate adds deco to the decoration slice and returns the slice.
func (err *UnknownUnitError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

//Critical returns true.
func (err *UnknownUnitError) Critical() bool { return true }

//IncompatibleUnitError reports a unit that exists, but measures a different
//quantity than the one requested.
type IncompatibleUnitError struct {
	quantity string
	unit     string
	deco     []string
}

func (err *IncompatibleUnitError) Error() string {
	return fmt.Sprintf("gomd/units: unit %q does not measure %s", err.unit, err.quantity)
}

//Decorate adds deco to the decoration slice and returns the slice.
func (err *IncompatibleUnitError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

//Critical returns true.
func (err *IncompatibleUnitError) Critical() bool { return true }

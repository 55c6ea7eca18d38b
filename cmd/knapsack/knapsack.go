package knapsack

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/operator-framework/fdsolver/pkg/fd"
	"github.com/operator-framework/fdsolver/pkg/fd/constraint"
)

// Item is a kind of object: each copy weighs Weight and brings Energy.
type Item struct {
	Weight int
	Energy int
}

// ParseItem reads "weight:energy".
func ParseItem(s string) (Item, error) {
	w, e, ok := strings.Cut(s, ":")
	if !ok {
		return Item{}, fd.Malformed("item %q is not weight:energy", s)
	}
	weight, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil || weight <= 0 {
		return Item{}, fd.Malformed("item %q has an invalid weight", s)
	}
	energy, err := strconv.Atoi(strings.TrimSpace(e))
	if err != nil || energy < 0 {
		return Item{}, fd.Malformed("item %q has an invalid energy", s)
	}
	return Item{Weight: weight, Energy: energy}, nil
}

// Model packs copies of items in a bag of the given capacity. The
// total energy is the variable named "power".
func Model(capacity int, items []Item) (*fd.Model, []*fd.IntVar, error) {
	if capacity < 0 {
		return nil, nil, fd.Malformed("negative capacity %d", capacity)
	}
	if len(items) == 0 {
		return nil, nil, fd.Malformed("no item to pack")
	}
	m := fd.NewModel("knapsack")
	objects := make([]*fd.IntVar, len(items))
	weights := make([]int, len(items))
	energies := make([]int, len(items))
	maxPower := 0
	for i, it := range items {
		objects[i] = m.IntVar(fmt.Sprintf("item[%d]", i), 0, capacity/it.Weight)
		weights[i] = it.Weight
		energies[i] = it.Energy
		maxPower += it.Energy * (capacity / it.Weight)
	}
	weight := m.BoundedIntVar("weight", 0, capacity)
	power := m.BoundedIntVar("power", 0, maxPower)

	c, err := constraint.Scalar(objects, weights, constraint.EQ, weight)
	if err != nil {
		return nil, nil, err
	}
	if err := c.Post(); err != nil {
		return nil, nil, err
	}
	c, err = constraint.Scalar(objects, energies, constraint.EQ, power)
	if err != nil {
		return nil, nil, err
	}
	if err := c.Post(); err != nil {
		return nil, nil, err
	}
	return m, objects, nil
}

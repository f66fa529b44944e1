package packing

import (
	"fmt"
	"sort"
)

// Box is one carrier-approved box size. Dimensions are exterior, in cm;
// MaxWeightKg is the carrier's limit for the box.
type Box struct {
	ID          string
	Name        string
	LengthCm    float64
	WidthCm     float64
	HeightCm    float64
	MaxWeightKg float64
}

// Volume returns the box volume in cubic cm
func (b Box) Volume() float64 {
	return b.LengthCm * b.WidthCm * b.HeightCm
}

// Catalog is an immutable, volume-sorted list of boxes. It is built once and
// injected into the packer; there is no mutable module-level catalog.
type Catalog struct {
	boxes []Box
}

// NewCatalog validates the boxes and returns a catalog sorted by volume
// ascending, so "smallest box that fits" is a linear scan.
func NewCatalog(boxes []Box) (*Catalog, error) {
	if len(boxes) == 0 {
		return nil, fmt.Errorf("box catalog must not be empty")
	}
	sorted := make([]Box, len(boxes))
	copy(sorted, boxes)
	for _, b := range sorted {
		if b.LengthCm <= 0 || b.WidthCm <= 0 || b.HeightCm <= 0 {
			return nil, fmt.Errorf("box %q has non-positive dimensions", b.ID)
		}
		if b.MaxWeightKg <= 0 {
			return nil, fmt.Errorf("box %q has non-positive max weight", b.ID)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Volume() < sorted[j].Volume()
	})
	return &Catalog{boxes: sorted}, nil
}

// Boxes returns the boxes sorted by volume ascending
func (c *Catalog) Boxes() []Box {
	out := make([]Box, len(c.boxes))
	copy(out, c.boxes)
	return out
}

// DefaultCatalog returns the standard carrier box lineup
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]Box{
		{ID: "envelope", Name: "Padded Envelope", LengthCm: 35, WidthCm: 25, HeightCm: 3, MaxWeightKg: 0.5},
		{ID: "small-box", Name: "Small Box", LengthCm: 23, WidthCm: 18, HeightCm: 12, MaxWeightKg: 5},
		{ID: "medium-box", Name: "Medium Box", LengthCm: 35, WidthCm: 28, HeightCm: 22, MaxWeightKg: 10},
		{ID: "large-box", Name: "Large Box", LengthCm: 45, WidthCm: 35, HeightCm: 30, MaxWeightKg: 20},
		{ID: "xl-box", Name: "Extra Large Box", LengthCm: 60, WidthCm: 45, HeightCm: 40, MaxWeightKg: 30},
	})
	if err != nil {
		panic(err)
	}
	return c
}

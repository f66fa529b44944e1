package packing

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Ulysse-Dev-Serre/ecommerce-starter-v2-sub002/internal/domain"
)

// Item is one order line presented to the packer. Dimensions in cm, weight
// in kg, per single unit.
type Item struct {
	VariantID uuid.UUID
	LengthCm  float64
	WidthCm   float64
	HeightCm  float64
	WeightKg  float64
	Quantity  int
}

// Volume returns the volume of a single unit in cubic cm
func (i Item) Volume() float64 {
	return i.LengthCm * i.WidthCm * i.HeightCm
}

// Packer assigns order items to catalog boxes with a deterministic greedy
// heuristic: largest unit first, smallest open box that still fits, new box
// only when nothing open can take the unit. Fit is approximated by volume
// sum and accumulated weight; no true 3D placement is attempted.
type Packer struct {
	catalog *Catalog
}

// NewPacker creates a packer bound to an immutable box catalog
func NewPacker(catalog *Catalog) *Packer {
	return &Packer{catalog: catalog}
}

// openParcel is a parcel under construction
type openParcel struct {
	box        Box
	usedVolume float64
	weight     float64
	oversized  bool
	// unit dims for the oversized case, where the "box" is the unit itself
	dims     [3]float64
	contents map[uuid.UUID]int
	order    []uuid.UUID // insertion order, for a stable manifest
}

func (p *openParcel) add(unit Item) {
	p.usedVolume += unit.Volume()
	p.weight += unit.WeightKg
	if _, seen := p.contents[unit.VariantID]; !seen {
		p.order = append(p.order, unit.VariantID)
	}
	p.contents[unit.VariantID]++
}

func (p *openParcel) fits(unit Item) bool {
	return p.usedVolume+unit.Volume() <= p.box.Volume() &&
		p.weight+unit.WeightKg <= p.box.MaxWeightKg
}

// Pack produces the parcel breakdown for the given items. The result is
// deterministic for a given input: quantities are expanded into units,
// sorted by volume descending (variant id breaks ties), and placed greedily.
// A unit no catalog box can hold becomes its own parcel flagged oversized;
// nothing is ever dropped.
func (p *Packer) Pack(items []Item) []domain.Parcel {
	var units []Item
	for _, item := range items {
		for q := 0; q < item.Quantity; q++ {
			unit := item
			unit.Quantity = 1
			units = append(units, unit)
		}
	}
	if len(units) == 0 {
		return nil
	}

	sort.SliceStable(units, func(i, j int) bool {
		vi, vj := units[i].Volume(), units[j].Volume()
		if vi != vj {
			return vi > vj
		}
		return units[i].VariantID.String() < units[j].VariantID.String()
	})

	var open []*openParcel
	for _, unit := range units {
		if placed := p.placeInOpen(open, unit); placed {
			continue
		}
		open = append(open, p.openFor(unit))
	}

	return closeParcels(open)
}

// placeInOpen puts the unit into the smallest-volume open parcel that can
// still accommodate it. Oversized parcels never accept additional units.
func (p *Packer) placeInOpen(open []*openParcel, unit Item) bool {
	var best *openParcel
	for _, parcel := range open {
		if parcel.oversized || !parcel.fits(unit) {
			continue
		}
		if best == nil || parcel.box.Volume() < best.box.Volume() {
			best = parcel
		}
	}
	if best == nil {
		return false
	}
	best.add(unit)
	return true
}

// openFor opens a new parcel using the smallest catalog box whose single-item
// capacity (volume and max weight) fits the unit, falling back to an
// oversized parcel shaped like the unit itself.
func (p *Packer) openFor(unit Item) *openParcel {
	for _, box := range p.catalog.boxes {
		if unit.Volume() <= box.Volume() && unit.WeightKg <= box.MaxWeightKg {
			parcel := &openParcel{box: box, contents: make(map[uuid.UUID]int)}
			parcel.add(unit)
			return parcel
		}
	}
	parcel := &openParcel{
		box: Box{
			ID:          "oversized",
			Name:        "Oversized",
			LengthCm:    unit.LengthCm,
			WidthCm:     unit.WidthCm,
			HeightCm:    unit.HeightCm,
			MaxWeightKg: unit.WeightKg,
		},
		oversized: true,
		dims:      [3]float64{unit.LengthCm, unit.WidthCm, unit.HeightCm},
		contents:  make(map[uuid.UUID]int),
	}
	parcel.add(unit)
	return parcel
}

func closeParcels(open []*openParcel) []domain.Parcel {
	parcels := make([]domain.Parcel, 0, len(open))
	for _, op := range open {
		parcel := domain.Parcel{
			BoxID:     op.box.ID,
			BoxName:   op.box.Name,
			LengthCm:  op.box.LengthCm,
			WidthCm:   op.box.WidthCm,
			HeightCm:  op.box.HeightCm,
			WeightKg:  op.weight,
			Oversized: op.oversized,
		}
		for _, variantID := range op.order {
			parcel.Contents = append(parcel.Contents, domain.ParcelItem{
				VariantID: variantID,
				Quantity:  op.contents[variantID],
			})
		}
		parcels = append(parcels, parcel)
	}
	return parcels
}

// Result wraps parcels with the packing timestamp for the order audit blob
func Result(parcels []domain.Parcel) *domain.PackingResult {
	return &domain.PackingResult{
		Parcels:  parcels,
		PackedAt: time.Now(),
	}
}

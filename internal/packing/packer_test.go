package packing

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
)

var (
	variantA = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	variantB = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func TestPackSmallItemsShareOneBox(t *testing.T) {
	packer := NewPacker(DefaultCatalog())

	// Four 10x10x10 units at 1kg each: 4000 cm³, 4 kg, one small box
	// (23x18x12 = 4968 cm³, 5 kg) holds all of them.
	parcels := packer.Pack([]Item{
		{VariantID: variantA, LengthCm: 10, WidthCm: 10, HeightCm: 10, WeightKg: 1, Quantity: 4},
	})

	if len(parcels) != 1 {
		t.Fatalf("expected 1 parcel, got %d", len(parcels))
	}
	if parcels[0].BoxID != "small-box" {
		t.Errorf("expected small-box, got %s", parcels[0].BoxID)
	}
	if parcels[0].WeightKg != 4 {
		t.Errorf("expected parcel weight 4, got %v", parcels[0].WeightKg)
	}
	if len(parcels[0].Contents) != 1 || parcels[0].Contents[0].Quantity != 4 {
		t.Errorf("unexpected manifest: %+v", parcels[0].Contents)
	}
}

func TestPackWeightLimitForcesSecondBox(t *testing.T) {
	packer := NewPacker(DefaultCatalog())

	// Each unit is tiny but 3kg; a small box takes only one (5kg limit)
	// before weight blocks the second. Volume alone would fit both.
	parcels := packer.Pack([]Item{
		{VariantID: variantA, LengthCm: 5, WidthCm: 5, HeightCm: 5, WeightKg: 3, Quantity: 2},
	})

	if len(parcels) != 2 {
		t.Fatalf("expected 2 parcels, got %d", len(parcels))
	}
	for i, parcel := range parcels {
		if parcel.WeightKg != 3 {
			t.Errorf("parcel %d: expected weight 3, got %v", i, parcel.WeightKg)
		}
	}
}

func TestPackOversizedItem(t *testing.T) {
	packer := NewPacker(DefaultCatalog())

	parcels := packer.Pack([]Item{
		// Bigger than the XL box in volume
		{VariantID: variantA, LengthCm: 120, WidthCm: 60, HeightCm: 50, WeightKg: 12, Quantity: 1},
		// Normal small item
		{VariantID: variantB, LengthCm: 10, WidthCm: 10, HeightCm: 5, WeightKg: 0.4, Quantity: 1},
	})

	if len(parcels) != 2 {
		t.Fatalf("expected 2 parcels, got %d", len(parcels))
	}

	var oversized, regular int
	for _, parcel := range parcels {
		if parcel.Oversized {
			oversized++
			if parcel.LengthCm != 120 || parcel.WidthCm != 60 || parcel.HeightCm != 50 {
				t.Errorf("oversized parcel should take the unit's dimensions, got %+v", parcel)
			}
		} else {
			regular++
		}
	}
	if oversized != 1 || regular != 1 {
		t.Errorf("expected 1 oversized and 1 regular parcel, got %d/%d", oversized, regular)
	}
}

func TestPackOversizedParcelAcceptsNothingElse(t *testing.T) {
	packer := NewPacker(DefaultCatalog())

	// The oversized unit is placed first (largest volume). The small unit
	// must open its own box rather than ride along in the oversized parcel.
	parcels := packer.Pack([]Item{
		{VariantID: variantA, LengthCm: 120, WidthCm: 60, HeightCm: 50, WeightKg: 5, Quantity: 1},
		{VariantID: variantB, LengthCm: 4, WidthCm: 4, HeightCm: 2, WeightKg: 0.1, Quantity: 1},
	})

	for _, parcel := range parcels {
		if parcel.Oversized && len(parcel.Contents) != 1 {
			t.Errorf("oversized parcel must hold exactly its unit, got %+v", parcel.Contents)
		}
	}
}

func TestPackDeterministic(t *testing.T) {
	packer := NewPacker(DefaultCatalog())
	items := []Item{
		{VariantID: variantB, LengthCm: 20, WidthCm: 15, HeightCm: 10, WeightKg: 2, Quantity: 2},
		{VariantID: variantA, LengthCm: 10, WidthCm: 10, HeightCm: 10, WeightKg: 1, Quantity: 3},
	}

	first := packer.Pack(items)
	for i := 0; i < 10; i++ {
		again := packer.Pack(items)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("packing is not deterministic:\nfirst: %+v\nagain: %+v", first, again)
		}
	}
}

func TestPackEmptyAndZeroQuantity(t *testing.T) {
	packer := NewPacker(DefaultCatalog())

	if parcels := packer.Pack(nil); parcels != nil {
		t.Errorf("expected nil for empty input, got %+v", parcels)
	}
	if parcels := packer.Pack([]Item{{VariantID: variantA, LengthCm: 1, WidthCm: 1, HeightCm: 1, WeightKg: 1, Quantity: 0}}); parcels != nil {
		t.Errorf("expected nil for zero quantities, got %+v", parcels)
	}
}

func TestNewCatalogValidation(t *testing.T) {
	if _, err := NewCatalog(nil); err == nil {
		t.Error("expected error for empty catalog")
	}
	if _, err := NewCatalog([]Box{{ID: "flat", LengthCm: 10, WidthCm: 10, HeightCm: 0, MaxWeightKg: 1}}); err == nil {
		t.Error("expected error for non-positive dimension")
	}
	if _, err := NewCatalog([]Box{{ID: "weightless", LengthCm: 10, WidthCm: 10, HeightCm: 10, MaxWeightKg: 0}}); err == nil {
		t.Error("expected error for non-positive max weight")
	}
}

func TestCatalogSortedByVolume(t *testing.T) {
	boxes := DefaultCatalog().Boxes()
	for i := 1; i < len(boxes); i++ {
		if boxes[i].Volume() < boxes[i-1].Volume() {
			t.Fatalf("catalog not sorted by volume at index %d", i)
		}
	}
}

package models

import "math"

// Nutrient keys used in rows, totals and the percentage map.
const (
	KeyDryMatter  = "dm_g"
	KeyProtein    = "protein_g"
	KeyFat        = "fat_g"
	KeyCHO        = "cho_g"
	KeyFiber      = "fiber_g"
	KeyAsh        = "ash_g"
	KeyCalcium    = "ca_mg"
	KeyPhosphorus = "p_mg"
	KeyIron       = "iron_mg"
	KeyEnergy     = "energy_kcal"
)

// PercentageKeys lists every nutrient expressed as a share of dry matter.
// Dry matter itself is not part of the list.
var PercentageKeys = []string{
	KeyProtein,
	KeyFat,
	KeyCHO,
	KeyFiber,
	KeyAsh,
	KeyCalcium,
	KeyPhosphorus,
	KeyIron,
	KeyEnergy,
}

// Nutrients holds absolute nutrient amounts for one ingredient (or a sum of ingredients)
type Nutrients struct {
	DMG        float64 `json:"dm_g" yaml:"dm_g"`
	ProteinG   float64 `json:"protein_g" yaml:"protein_g"`
	FatG       float64 `json:"fat_g" yaml:"fat_g"`
	CHOG       float64 `json:"cho_g" yaml:"cho_g"`
	FiberG     float64 `json:"fiber_g" yaml:"fiber_g"`
	AshG       float64 `json:"ash_g" yaml:"ash_g"`
	CalciumMg  float64 `json:"ca_mg" yaml:"ca_mg"`
	PhosphMg   float64 `json:"p_mg" yaml:"p_mg"`
	IronMg     float64 `json:"iron_mg" yaml:"iron_mg"`
	EnergyKcal float64 `json:"energy_kcal" yaml:"energy_kcal"`
}

// Add returns the field-wise sum of n and o
func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		DMG:        n.DMG + o.DMG,
		ProteinG:   n.ProteinG + o.ProteinG,
		FatG:       n.FatG + o.FatG,
		CHOG:       n.CHOG + o.CHOG,
		FiberG:     n.FiberG + o.FiberG,
		AshG:       n.AshG + o.AshG,
		CalciumMg:  n.CalciumMg + o.CalciumMg,
		PhosphMg:   n.PhosphMg + o.PhosphMg,
		IronMg:     n.IronMg + o.IronMg,
		EnergyKcal: n.EnergyKcal + o.EnergyKcal,
	}
}

// Value returns the amount stored under a nutrient key.
// Unknown keys yield 0 and false.
func (n Nutrients) Value(key string) (float64, bool) {
	switch key {
	case KeyDryMatter:
		return n.DMG, true
	case KeyProtein:
		return n.ProteinG, true
	case KeyFat:
		return n.FatG, true
	case KeyCHO:
		return n.CHOG, true
	case KeyFiber:
		return n.FiberG, true
	case KeyAsh:
		return n.AshG, true
	case KeyCalcium:
		return n.CalciumMg, true
	case KeyPhosphorus:
		return n.PhosphMg, true
	case KeyIron:
		return n.IronMg, true
	case KeyEnergy:
		return n.EnergyKcal, true
	}
	return 0, false
}

// invalid returns the key of the first negative or non-finite field, or ""
func (n Nutrients) invalid() string {
	if !nonNegative(n.DMG) {
		return KeyDryMatter
	}
	for _, key := range PercentageKeys {
		if v, _ := n.Value(key); !nonNegative(v) {
			return key
		}
	}
	return ""
}

// nonNegative reports whether v is a finite number >= 0
func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

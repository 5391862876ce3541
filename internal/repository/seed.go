package repository

import "github.com/Lixing-Zhang/dog-diet/backend/internal/models"

// SeedIngredients returns the built-in catalog used when no database is configured.
// Amounts are per catalog portion: fresh weight, water and the resulting dry matter.
func SeedIngredients() []models.IngredientProfile {
	n := func(dm, protein, fat, cho, fiber, ash, ca, p, iron, kcal float64) models.Nutrients {
		return models.Nutrients{
			DMG: dm, ProteinG: protein, FatG: fat, CHOG: cho, FiberG: fiber, AshG: ash,
			CalciumMg: ca, PhosphMg: p, IronMg: iron, EnergyKcal: kcal,
		}
	}

	return []models.IngredientProfile{
		// Organ meat
		{Name: "Beef liver", Group: "Organ Meat", FreshWeightG: 500, WaterPercent: 70, Nutrients: n(150, 101.5, 18, 19.5, 0, 6.5, 25, 1935, 24.5, 675)},
		{Name: "Chicken liver", Group: "Organ Meat", FreshWeightG: 400, WaterPercent: 76, Nutrients: n(96, 67.6, 19.3, 2.9, 0, 4.4, 32, 1188, 36, 476)},
		{Name: "Pork liver", Group: "Organ Meat", FreshWeightG: 400, WaterPercent: 71, Nutrients: n(116, 85.2, 14.6, 10, 0, 5.8, 36, 1152, 92, 536)},
		{Name: "Beef kidney", Group: "Organ Meat", FreshWeightG: 300, WaterPercent: 77, Nutrients: n(69, 52, 9.3, 0.9, 0, 3.4, 39, 771, 13.8, 297)},

		// Muscle meat
		{Name: "Chicken breast, meat only", Group: "Meat Group A", FreshWeightG: 1000, WaterPercent: 75, Nutrients: n(250, 225, 26, 0, 0, 11, 110, 2280, 7.2, 1200)},
		{Name: "Turkey breast", Group: "Meat Group A", FreshWeightG: 800, WaterPercent: 74, Nutrients: n(208, 188, 12, 1.1, 0, 8, 72, 1704, 4.8, 912)},
		{Name: "Beef, ground", Group: "Meat Group B", FreshWeightG: 800, WaterPercent: 62, Nutrients: n(304, 137, 160, 0, 0, 7, 144, 1400, 17.6, 2032)},
		{Name: "Lamb shoulder", Group: "Meat Group C", FreshWeightG: 700, WaterPercent: 65, Nutrients: n(245, 119, 118, 0, 0, 7, 119, 1260, 11.2, 1589)},

		// Grains
		{Name: "Wheat", Group: "Grain Group A", FreshWeightG: 400, WaterPercent: 12.5, Nutrients: n(350, 50.4, 6.2, 285.2, 42.9, 6.2, 116, 1152, 12.8, 1308)},
		{Name: "Rice, white", Group: "Grain Group A", FreshWeightG: 400, WaterPercent: 12, Nutrients: n(352, 28.5, 2.6, 316, 5.2, 2.4, 112, 460, 3.2, 1460)},
		{Name: "Oats", Group: "Grain Group A", FreshWeightG: 300, WaterPercent: 10, Nutrients: n(270, 50.7, 20.7, 198.8, 31.8, 5.1, 162, 1569, 14.1, 1167)},
		{Name: "Oat Bran", Group: "Grain Group B", FreshWeightG: 200, WaterPercent: 6.6, Nutrients: n(186.8, 34.6, 14, 132.4, 30.8, 5.8, 116, 1468, 10.8, 492)},
		{Name: "Barley", Group: "Grain Group B", FreshWeightG: 300, WaterPercent: 10, Nutrients: n(270, 37.5, 6.9, 220.5, 52, 6.9, 99, 792, 10.8, 1059)},

		// Vegetables and fruit
		{Name: "Zucchini", Group: "Vegetable A", FreshWeightG: 500, WaterPercent: 95, Nutrients: n(25, 6, 1.6, 15.5, 5, 3.4, 80, 190, 1.8, 85)},
		{Name: "Carrot", Group: "Vegetable A", FreshWeightG: 400, WaterPercent: 88, Nutrients: n(48, 3.7, 1, 38.3, 11.2, 3.9, 132, 140, 1.2, 164)},
		{Name: "Spinach", Group: "Vegetable B", FreshWeightG: 300, WaterPercent: 91, Nutrients: n(27, 8.6, 1.2, 10.9, 6.6, 5.2, 297, 147, 8.1, 69)},
		{Name: "Apple", Group: "Fruit", FreshWeightG: 200, WaterPercent: 86, Nutrients: n(28, 0.5, 0.3, 27.6, 4.8, 0.4, 12, 22, 0.2, 104)},

		// Oils
		{Name: "Fish oil", Group: "Oil", FreshWeightG: 20, WaterPercent: 0, Nutrients: n(20, 0, 20, 0, 0, 0, 0, 0, 0, 180)},
		{Name: "Sunflower oil", Group: "Oil", FreshWeightG: 20, WaterPercent: 0, Nutrients: n(20, 0, 20, 0, 0, 0, 0, 0, 0, 177)},
	}
}

// SeedFixedIngredients returns the default mandatory ingredients
func SeedFixedIngredients() []models.FixedContribution {
	return []models.FixedContribution{
		{Name: "Bone meal", Fixed: true, Nutrients: models.Nutrients{DMG: 20, ProteinG: 2.4, AshG: 15.2, CalciumMg: 6200, PhosphMg: 2900}},
		{Name: "Iodized salt", Fixed: true, Nutrients: models.Nutrients{DMG: 5, AshG: 5}},
		{Name: "Vitamin-mineral premix", Fixed: true, Nutrients: models.Nutrients{DMG: 10, ProteinG: 0.5, CHOG: 6, AshG: 3, CalciumMg: 150, PhosphMg: 80, IronMg: 12, EnergyKcal: 20}},
	}
}

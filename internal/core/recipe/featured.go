package recipe

import "ulam-ai/internal/pkg/common"

var featured = []common.DishSuggestion{
	{
		ID:          "f1",
		Name:        "Chicken Adobo",
		Description: "The unofficial national dish. Chicken braised in garlic, vinegar, oil, and soy sauce.",
		PrepTime:    "45m",
		Difficulty:  common.DifficultyEasy,
		Calories:    "450",
		Image:       "https://panlasangpinoy.com/wp-content/uploads/2009/08/Pork-Adobo-.jpg",
	},
	{
		ID:          "f2",
		Name:        "Sinigang na Baboy",
		Description: "A sour soup native to the Philippines. Pork ribs with tamarind, tomato, and vegetables.",
		PrepTime:    "1h 15m",
		Difficulty:  common.DifficultyMedium,
		Calories:    "320",
		Image:       "https://panlasangpinoy.com/wp-content/uploads/2017/03/Sinigang-na-Baboy-with-Gabi-Panlasang-Pinoy.jpg",
	},
	{
		ID:          "f3",
		Name:        "Kare-Kare",
		Description: "Filipino stew with a rich savory peanut sauce, oxtail, and vegetables.",
		PrepTime:    "2h",
		Difficulty:  common.DifficultyHard,
		Calories:    "550",
		Image:       "https://panlasangpinoy.com/wp-content/uploads/2009/05/kare-kare-recipe.jpg",
	},
	{
		ID:          "f4",
		Name:        "Sisig",
		Description: "Chopped pork face and belly, grilled and seasoned with calamansi and chili peppers.",
		PrepTime:    "1h",
		Difficulty:  common.DifficultyMedium,
		Calories:    "480",
		Image:       "https://panlasangpinoy.com/wp-content/uploads/2020/11/Sisig-recipe-1.jpg",
	},
	{
		ID:          "f5",
		Name:        "Bicol Express",
		Description: "Pork cubes cooked in coconut milk and chili peppers. Spicy and creamy.",
		PrepTime:    "50m",
		Difficulty:  common.DifficultyMedium,
		Calories:    "510",
		Image:       "https://panlasangpinoy.com/wp-content/uploads/2017/04/Spicy-Pork-Bicol-Express-Recipe-Panlasang-Pinoy.jpg",
	},
	{
		ID:          "f6",
		Name:        "Halo-Halo",
		Description: "The ultimate Filipino dessert with crushed ice, evaporated milk, and various sweet beans.",
		PrepTime:    "20m",
		Difficulty:  common.DifficultyEasy,
		Calories:    "300",
		Image:       "https://panlasangpinoy.com/wp-content/uploads/2011/05/Special-Halo-halo.jpg",
	},
}

// Featured 首頁精選菜色，回傳副本
func Featured() []common.DishSuggestion {
	out := make([]common.DishSuggestion, len(featured))
	for i, d := range featured {
		d.Matched = []string{}
		d.Missing = []string{}
		out[i] = d.Clone()
	}
	return out
}

// FindFeatured 依 id 查詢精選菜色
func FindFeatured(id string) (common.DishSuggestion, bool) {
	for _, d := range Featured() {
		if string(d.ID) == id {
			return d, true
		}
	}
	return common.DishSuggestion{}, false
}

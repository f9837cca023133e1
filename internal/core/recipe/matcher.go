package recipe

import (
	"sort"
	"strings"

	"ulam-ai/internal/pkg/common"
)

// Matches 雙向子字串比對，任一方為空字串時不算符合
// 例如 "chicken" 與 "chicken breast" 視為相同食材
func Matches(pantryItem, required string) bool {
	p, r := common.Normalize(pantryItem), common.Normalize(required)
	if p == "" || r == "" {
		return false
	}
	return strings.Contains(p, r) || strings.Contains(r, p)
}

// InPantry 食材是否在食材櫃中
func InPantry(pantry []string, required string) bool {
	for _, item := range pantry {
		if Matches(item, required) {
			return true
		}
	}
	return false
}

// Annotate 標記已有與缺少的食材，不修改傳入的 dish
func Annotate(dish common.DishSuggestion, pantry []string) common.DishSuggestion {
	out := dish.Clone()
	out.Matched = make([]string, 0, len(dish.RequiredIngredients))
	out.Missing = make([]string, 0, len(dish.RequiredIngredients))

	for _, required := range dish.RequiredIngredients {
		if InPantry(pantry, required) {
			out.Matched = append(out.Matched, required)
		} else {
			out.Missing = append(out.Missing, required)
		}
	}
	out.MatchScore = len(out.Matched)
	return out
}

// Rank 標記所有菜色並依符合數量排序，同分維持原順序
func Rank(dishes []common.DishSuggestion, pantry []string) []common.DishSuggestion {
	ranked := make([]common.DishSuggestion, len(dishes))
	for i, dish := range dishes {
		ranked[i] = Annotate(dish, pantry)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MatchScore > ranked[j].MatchScore
	})
	return ranked
}

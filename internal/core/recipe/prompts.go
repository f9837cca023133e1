package recipe

import (
	"fmt"
	"strconv"
	"strings"

	"ulam-ai/internal/infrastructure/config"
	"ulam-ai/internal/pkg/common"
)

const scanPrompt = `Analyze this image of food ingredients (on a table, counter, or fridge).
Identify the raw ingredients visible (e.g., "Chicken", "Eggplant", "Garlic", "Soy Sauce", "Can of Tuna").
Ignore general kitchen objects or background items.
Return ONLY a JSON array of strings. Example: ["Pork", "Kangkong", "Onion"]
Do not use markdown formatting.`

// money 以設定的幣別格式化金額
func money(cfg *config.OracleConfig, amount float64) string {
	value := strconv.FormatFloat(amount, 'f', -1, 64)
	if strings.EqualFold(cfg.Currency, "PHP") {
		return "₱" + value
	}
	return value + " " + cfg.Currency
}

func buildSuggestionPrompt(cfg *config.OracleConfig, req SuggestRequest) string {
	settings := req.Settings.WithDefaults()
	cuisine := cfg.Cuisine

	lang := "Output text in ENGLISH."
	if settings.Locale == "ph" {
		lang = "IMPORTANT: Output all text (names, descriptions) in TAGALOG/FILIPINO."
	}

	health := fmt.Sprintf("Suggest popular %s dishes.", cuisine)
	if settings.HealthMode {
		health = fmt.Sprintf("STRICT CONSTRAINT: Suggest only HEALTHY %s dishes. Prioritize vegetable-heavy, stewed, or grilled dishes.", cuisine)
	}

	budget := fmt.Sprintf("Provide estimated cost in %s.", cfg.Currency)
	if settings.Budget > 0 {
		budget = fmt.Sprintf("STRICT CONSTRAINT: The total estimated cost of ingredients must be around or under %s %s. If impossible, suggest the closest and realistic options.",
			money(cfg, settings.Budget), cfg.Currency)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I have these ingredients in my kitchen: %s.\n", common.StringSliceToString(req.Pantry))
	fmt.Fprintf(&b, "SETTINGS: Cooking for %d people (pax).\n%s\n\n", settings.PartySize, budget)
	fmt.Fprintf(&b, "%s\n%s\n\n", health, lang)
	fmt.Fprintf(&b, "Suggest %d-%d dishes I can cook or almost cook with these.\n\n", cfg.MinDishes, cfg.MaxDishes)
	b.WriteString("Strictly return a JSON array of objects. Do not include markdown formatting.\n")
	b.WriteString("Each object must have:\n")
	b.WriteString("- id (unique number)\n")
	b.WriteString("- name (string, name of the dish)\n")
	b.WriteString("- description (string, short appetizing description)\n")
	b.WriteString("- allIngredients (array of strings, list of ALL ingredients needed)\n")
	b.WriteString(`- difficulty (string, "Easy", "Medium", or "Hard")` + "\n")
	b.WriteString(`- prepTime (string, e.g. "45m")` + "\n")
	b.WriteString(`- calories (string, estimate e.g. "350")` + "\n")
	fmt.Fprintf(&b, "- estimatedCost (string, e.g. \"%s\") - estimated total cost for %d pax.\n\n", money(cfg, 150), settings.PartySize)
	b.WriteString("Prioritize dishes where I have most of the ingredients and fits the budget.")
	return b.String()
}

func buildDetailPrompt(cfg *config.OracleConfig, req DetailRequest) string {
	settings := req.Settings.WithDefaults()
	pax := settings.PartySize

	lang := "Output in ENGLISH."
	if settings.Locale == "ph" {
		lang = "Output the instructions and chef's note in TAGALOG/FILIPINO. You may use Taglish."
	}

	pantry := "None"
	if len(req.Pantry) > 0 {
		pantry = common.StringSliceToString(req.Pantry)
	}

	budget := "Flexible"
	if settings.Budget > 0 {
		budget = money(cfg, settings.Budget)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Act as a professional %s chef.\n", cfg.Cuisine)
	fmt.Fprintf(&b, "Generate a structured JSON cooking guide for %q.\n\n", req.Dish.Name)
	b.WriteString("CONTEXT:\n")
	fmt.Fprintf(&b, "- User's pantry (ingredients they HAVE): %s.\n", pantry)
	fmt.Fprintf(&b, "- Budget: %s\n- Pax: %d people.\n\n", budget, pax)
	if settings.HealthMode {
		b.WriteString("Make this a HEALTHIER version.\n")
	}
	fmt.Fprintf(&b, "%s\n\n", lang)
	b.WriteString(`An ingredient is "have" when a pantry item contains its name or its name contains a pantry item (case-insensitive); otherwise it is "missing".` + "\n")
	fmt.Fprintf(&b, "IMPORTANT: Estimate prices in %s for the MISSING ingredients only. Use 'Pantry' as the price of ingredients the user has.\n", cfg.Currency)
	fmt.Fprintf(&b, "Adjust ingredient amounts for %d people.\n", pax)
	b.WriteString("Number the instructions sequentially starting at 1 with no gaps.\n\n")
	b.WriteString("Strictly return a JSON object with this structure (no markdown):\n")
	fmt.Fprintf(&b, `{
  "chefNote": "A brief, warm intro.",
  "totalCost": "string (e.g. %s)",
  "nutrition": {"calories": "number only", "protein": "number + unit", "carbs": "number + unit", "fat": "number + unit"},
  "ingredients": [{"item": "ingredient name", "amount": "quantity for %d pax", "price": "estimated price or 'Pantry'", "status": "have" | "missing"}],
  "instructions": [{"step": 1, "text": "instruction text"}, {"step": 2, "text": "instruction text"}]
}`, money(cfg, 200), pax)
	return b.String()
}

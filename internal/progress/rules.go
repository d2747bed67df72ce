package progress

import "slices"

// Rule is one dashboard achievement and the condition that unlocks it.
type Rule struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Icon        string           `json:"icon"`
	Met         func(Stats) bool `json:"-"`
}

func countAtLeast(n int, count func(Stats) int) func(Stats) bool {
	return func(s Stats) bool { return count(s) >= n }
}

func photos(s Stats) int     { return s.Total.Photo }
func characters(s Stats) int { return s.Total.Character }
func skills(s Stats) int     { return s.Total.Skill }

// Rules lists the dashboard achievements in display order.
var Rules = []Rule{
	{ID: "first_photo", Name: "First old photo", Description: "Complete your first photo analysis", Icon: "📸", Met: countAtLeast(1, photos)},
	{ID: "photo_master", Name: "Photo analyst", Description: "Complete 5 photo analyses", Icon: "🖼️", Met: countAtLeast(5, photos)},
	{ID: "photo_expert", Name: "Photo expert", Description: "Complete 10 photo analyses", Icon: "🏆", Met: countAtLeast(10, photos)},
	{ID: "first_character", Name: "First family member", Description: "Complete your first character exploration", Icon: "👤", Met: countAtLeast(1, characters)},
	{ID: "family_explorer", Name: "Family explorer", Description: "Complete 3 character explorations", Icon: "👨‍👩‍👧‍👦", Met: countAtLeast(3, characters)},
	{ID: "genealogy_master", Name: "Genealogy master", Description: "Complete 10 character explorations", Icon: "📜", Met: countAtLeast(10, characters)},
	{ID: "first_skill", Name: "First family skill", Description: "Record your first skill heritage", Icon: "🔧", Met: countAtLeast(1, skills)},
	{ID: "skill_collector", Name: "Skill collector", Description: "Record 3 skill heritages", Icon: "🧰", Met: countAtLeast(3, skills)},
	{ID: "heritage_guardian", Name: "Heritage guardian", Description: "Record 10 skill heritages", Icon: "🛡️", Met: countAtLeast(10, skills)},
	{ID: "deep_thinker", Name: "Deep thinker", Description: "Record 20 or more insights", Icon: "💭", Met: func(s Stats) bool { return s.Insights.TotalInsights >= 20 }},
	{ID: "weekly_streak", Name: "Persistence", Description: "Stay active 7 days in a row", Icon: "🔥", Met: func(s Stats) bool { return s.Overall.StreakDays >= MaxStreakDays }},
}

// RuleByID returns the rule with the given id.
func RuleByID(id string) (Rule, bool) {
	i := slices.IndexFunc(Rules, func(r Rule) bool { return r.ID == id })
	if i < 0 {
		return Rule{}, false
	}
	return Rules[i], true
}

// Evaluate returns the ids of rules met by s that are not already in
// unlocked, in rule order. It never reports a rule for removal: an unlocked
// achievement stays unlocked whatever s says.
func Evaluate(s Stats, unlocked []string) []string {
	var out []string
	for _, r := range Rules {
		if slices.Contains(unlocked, r.ID) {
			continue
		}
		if r.Met(s) {
			out = append(out, r.ID)
		}
	}
	return out
}

// Level is the user level for a number of unlocked achievements.
func Level(achievements int) int { return achievements/3 + 1 }

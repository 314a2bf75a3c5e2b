package progression

// TaskTemplate seeds a task definition for a new user.
type TaskTemplate struct {
	Key            string
	Name           string
	Color          string
	Icon           string
	Priority       string
	Unit           string
	Thresholds     []float64
	FrequencyType  string
	FrequencyCount int
}

// DefaultTasks are created for every new account.
var DefaultTasks = []TaskTemplate{
	{Key: "deep-work", Name: "Deep Work", Color: "#7c3aed", Icon: "brain", Priority: PriorityHigh, Unit: UnitMinutes, Thresholds: []float64{30, 60, 120, 180}, FrequencyType: FrequencyDaily},
	{Key: "exercise", Name: "Exercise", Color: "#ef4444", Icon: "dumbbell", Priority: PriorityNormal, Unit: UnitMinutes, Thresholds: []float64{15, 30, 45, 60}, FrequencyType: FrequencyWeekly, FrequencyCount: 3},
	{Key: "reading", Name: "Reading", Color: "#0ea5e9", Icon: "book", Priority: PriorityNormal, Unit: "pages", FrequencyType: FrequencyDaily},
	{Key: "meditation", Name: "Meditation", Color: "#10b981", Icon: "lotus", Priority: PriorityNormal, Unit: UnitMinutes, FrequencyType: FrequencyDaily},
}

// Skill is a node of the level-gated skill tree.
type Skill struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	RequiredLevel int    `json:"required_level"`
}

// Skills is the static skill tree.
var Skills = []Skill{
	{ID: "focus", Name: "Focus", Description: "Sharpen attention on a single craft.", RequiredLevel: 2},
	{ID: "discipline", Name: "Discipline", Description: "Hold the line on hard days.", RequiredLevel: 4},
	{ID: "endurance", Name: "Endurance", Description: "Carry effort across long sessions.", RequiredLevel: 6},
	{ID: "insight", Name: "Insight", Description: "See patterns in your own records.", RequiredLevel: 9},
	{ID: "leadership", Name: "Leadership", Description: "Rally an alliance to its target.", RequiredLevel: 12},
	{ID: "transcendence", Name: "Transcendence", Description: "Master the path of the sigil.", RequiredLevel: 20},
}

// SkillByID looks up a skill in the tree.
func SkillByID(id string) (Skill, bool) {
	for _, s := range Skills {
		if s.ID == id {
			return s, true
		}
	}
	return Skill{}, false
}

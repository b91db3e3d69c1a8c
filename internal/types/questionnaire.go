package types

// QuestionnaireItem is one fixed scoring question.
type QuestionnaireItem struct {
	Category string `json:"category"`
	Question string `json:"question"`
	MaxScore int    `json:"max_score"`
}

const (
	CategoryCallOpening   = "Call Opening"
	CategorySoftSkills    = "Soft Skills"
	CategoryProbing       = "Probing & Understanding"
	CategoryResolution    = "Problem Resolution"
	CategoryCallClosing   = "Call Closing"
	CategoryCriticalParam = "Critical Parameters"
)

var questionnaire = []QuestionnaireItem{
	{CategoryCallOpening, "Did agent probe customer name before continuing?", 3},
	{CategoryCallOpening, "Did agent open call as per timelines and script?", 3},
	{CategoryCallOpening, "Did agent give opening within 5 seconds?", 2},
	{CategoryCallOpening, "Did agent greet according to language selection?", 2},

	{CategorySoftSkills, "Did agent willingly help without making commitments?", 3},
	{CategorySoftSkills, "Did agent use proper sentence structure and grammar?", 3},
	{CategorySoftSkills, "Was agent confident during the call?", 3},
	{CategorySoftSkills, "Did agent show empathy towards customer?", 4},
	{CategorySoftSkills, "Did agent maintain professional tone throughout?", 3},

	{CategoryProbing, "Did agent ask effective questions to understand needs?", 4},
	{CategoryProbing, "Did agent understand customer concern at first instance?", 3},
	{CategoryProbing, "Did agent ask pertinent diagnostic questions?", 3},

	{CategoryResolution, "Did agent provide accurate information?", 5},
	{CategoryResolution, "Did agent offer appropriate solutions?", 5},
	{CategoryResolution, "Did agent handle objections effectively?", 4},

	{CategoryCallClosing, "Did agent follow correct closing format?", 3},
	{CategoryCallClosing, "Did agent summarize the call properly?", 3},
	{CategoryCallClosing, "Did agent ask for further assistance?", 2},

	{CategoryCriticalParam, "Did agent NOT disconnect without warning?", 10},
	{CategoryCriticalParam, "Did agent use correct categorization?", 5},
}

// Questionnaire returns the canonical scoring items in presentation order.
// The returned slice is a copy and may be modified by the caller.
func Questionnaire() []QuestionnaireItem {
	out := make([]QuestionnaireItem, len(questionnaire))
	copy(out, questionnaire)
	return out
}

package catalog

import "github.com/aretw0/triage/pkg/domain"

// Pain triage question identifiers, in flow order.
const (
	QWhen       domain.QuestionID = "q1_when"
	QWhere      domain.QuestionID = "q2_where"
	QQuality    domain.QuestionID = "q3_quality"
	QWorse      domain.QuestionID = "q4_worse"
	QBetter     domain.QuestionID = "q5_better"
	QAssociated domain.QuestionID = "q6_associated"
	QDuration   domain.QuestionID = "q7_duration"
	QFrequency  domain.QuestionID = "q8_frequency"
	QSeverity   domain.QuestionID = "q9_severity"
)

// PainOrder is the declared flow order of the default catalog.
var PainOrder = []domain.QuestionID{
	QWhen, QWhere, QQuality, QWorse, QBetter, QAssociated, QDuration, QFrequency, QSeverity,
}

func other() domain.Choice {
	return domain.Choice{ID: domain.OtherChoiceID, Label: "Other / describe", IsOther: true}
}

// Default returns the nine-question pain triage catalog.
func Default() *Catalog {
	return MustNew(
		domain.Question{
			ID:     QWhen,
			Title:  "Onset",
			Prompt: "When did the pain start?",
			Choices: []domain.Choice{
				{ID: "just_now", Label: "Just now"},
				{ID: "today", Label: "Earlier today"},
				{ID: "yesterday", Label: "Yesterday"},
				{ID: "few_days", Label: "A few days ago"},
				{ID: "week_plus", Label: "More than a week ago"},
				other(),
			},
		},
		domain.Question{
			ID:     QWhere,
			Title:  "Location",
			Prompt: "Where do you feel the pain?",
			Choices: []domain.Choice{
				{ID: "mid_chest", Label: "Middle of the chest"},
				{ID: "left_chest", Label: "Left side of the chest"},
				{ID: "right_chest", Label: "Right side of the chest"},
				{ID: "upper_abdomen", Label: "Upper abdomen"},
				{ID: "back", Label: "Back"},
				{ID: "arm_jaw", Label: "Arm, neck or jaw"},
				other(),
			},
		},
		domain.Question{
			ID:     QQuality,
			Title:  "Quality",
			Prompt: "How would you describe the pain?",
			Choices: []domain.Choice{
				{ID: "pressure", Label: "Pressure or squeezing"},
				{ID: "sharp", Label: "Sharp or stabbing"},
				{ID: "burning", Label: "Burning"},
				{ID: "dull", Label: "Dull ache"},
				{ID: "tearing", Label: "Tearing"},
				other(),
			},
		},
		domain.Question{
			ID:     QWorse,
			Title:  "Aggravating factors",
			Prompt: "What makes the pain worse?",
			Choices: []domain.Choice{
				{ID: "activity", Label: "Physical activity"},
				{ID: "breathing", Label: "Deep breathing or coughing"},
				{ID: "position", Label: "Changing position"},
				{ID: "eating", Label: "Eating"},
				{ID: "touch", Label: "Pressing on the area"},
				other(),
			},
		},
		domain.Question{
			ID:     QBetter,
			Title:  "Relieving factors",
			Prompt: "What makes the pain better?",
			Choices: []domain.Choice{
				{ID: "rest", Label: "Rest"},
				{ID: "sitting_forward", Label: "Sitting up or leaning forward"},
				{ID: "medication", Label: "Medication"},
				{ID: "nothing", Label: "Nothing helps"},
				other(),
			},
		},
		domain.Question{
			ID:     QAssociated,
			Title:  "Associated symptoms",
			Prompt: "Do you have any of these symptoms along with the pain? Select all that apply.",
			Multi:  true,
			Choices: []domain.Choice{
				{ID: "shortness_of_breath", Label: "Shortness of breath"},
				{ID: "sweating", Label: "Sweating"},
				{ID: "nausea", Label: "Nausea or vomiting"},
				{ID: "dizziness", Label: "Dizziness or fainting"},
				{ID: "palpitations", Label: "Palpitations"},
				{ID: "none", Label: "None of these", IsExclusive: true},
				other(),
			},
		},
		domain.Question{
			ID:     QDuration,
			Title:  "Duration",
			Prompt: "How long does each episode last?",
			Choices: []domain.Choice{
				{ID: "under_1_min", Label: "Less than a minute"},
				{ID: "1_5_min", Label: "1 to 5 minutes"},
				{ID: "5_30_min", Label: "5 to 30 minutes"},
				{ID: "over_30_min", Label: "More than 30 minutes"},
				{ID: "constant", Label: "It is constant"},
				other(),
			},
		},
		domain.Question{
			ID:     QFrequency,
			Title:  "Frequency",
			Prompt: "How often does the pain occur?",
			Choices: []domain.Choice{
				{ID: "once", Label: "Only this once"},
				{ID: "daily", Label: "Daily"},
				{ID: "several_week", Label: "Several times a week"},
				{ID: "several_month", Label: "Several times a month"},
				other(),
			},
		},
		domain.Question{
			ID:     QSeverity,
			Title:  "Severity",
			Prompt: "On a scale of 1 to 10, how bad is the pain?",
			Choices: []domain.Choice{
				{ID: "1_3", Label: "1-3 (mild)"},
				{ID: "4_5", Label: "4-5 (moderate)"},
				{ID: "6_7", Label: "6-7 (severe)"},
				{ID: "8_10", Label: "8-10 (worst imaginable)"},
				other(),
			},
		},
	)
}

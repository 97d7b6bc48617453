package survey

import "github.com/garnizeh/questionnaire/pkg/models"

// FilterVisibleQuestions returns the questions that render unconditionally:
// those that are not the displayed question of any condition. Conditions are
// not scoped to groupID, so a condition on another group still hides its
// target here. Input order is preserved and the result is never nil.
func FilterVisibleQuestions(groupID int64, questions []models.Question, all []models.Conditions) []models.Question {
	gated := make(map[int64]struct{}, len(all))
	for _, c := range all {
		gated[c.DisplayedquestionID] = struct{}{}
	}

	out := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		if _, hidden := gated[q.ID]; hidden {
			continue
		}
		out = append(out, q)
	}
	return out
}

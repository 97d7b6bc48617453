package survey_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garnizeh/questionnaire/internal/survey"
	"github.com/garnizeh/questionnaire/pkg/models"
)

func ids(qs []models.Question) []int64 {
	out := make([]int64, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.ID)
	}
	return out
}

func TestFilterVisibleQuestions_ExcludesTargetsAndKeepsOrder(t *testing.T) {
	questions := []models.Question{{ID: 5}, {ID: 3}, {ID: 9}, {ID: 1}, {ID: 7}}
	conds := []models.Conditions{
		{DisplayedquestionID: 9, Source: models.QuestionSource(5)},
		{DisplayedquestionID: 1, Source: models.SubquestionSource(30)},
	}

	got := survey.FilterVisibleQuestions(1, questions, conds)
	assert.Equal(t, []int64{5, 3, 7}, ids(got))

	for _, q := range got {
		for _, c := range conds {
			assert.NotEqual(t, c.DisplayedquestionID, q.ID)
		}
	}
}

func TestFilterVisibleQuestions_Idempotent(t *testing.T) {
	questions := []models.Question{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	conds := []models.Conditions{{DisplayedquestionID: 2}, {DisplayedquestionID: 4}}

	once := survey.FilterVisibleQuestions(1, questions, conds)
	twice := survey.FilterVisibleQuestions(1, once, conds)
	assert.Equal(t, once, twice)
}

func TestFilterVisibleQuestions_CrossGroupExclusion(t *testing.T) {
	g2 := int64(2)
	// Q20 sits in group 2; the condition gating it is driven by a group 1 question.
	group2 := []models.Question{{ID: 20, QuestiongroupID: &g2}, {ID: 21, QuestiongroupID: &g2}}
	conds := []models.Conditions{{DisplayedquestionID: 20, Source: models.QuestionSource(10)}}

	got := survey.FilterVisibleQuestions(g2, group2, conds)
	assert.Equal(t, []int64{21}, ids(got))
}

func TestFilterVisibleQuestions_EmptyInputs(t *testing.T) {
	got := survey.FilterVisibleQuestions(1, nil, nil)
	require.NotNil(t, got)
	assert.Empty(t, got)

	all := []models.Question{{ID: 1}, {ID: 2}}
	assert.Equal(t, all, survey.FilterVisibleQuestions(1, all, nil))
}

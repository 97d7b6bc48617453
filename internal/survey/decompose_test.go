package survey_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbfs "github.com/garnizeh/questionnaire/db"
	"github.com/garnizeh/questionnaire/internal/survey"
	"github.com/garnizeh/questionnaire/pkg/fault"
	"github.com/garnizeh/questionnaire/pkg/models"
	"github.com/garnizeh/questionnaire/pkg/repository/mock"
)

const scenarioPayload = `{"questiongroups":[{"questiongroup":"1","questions":[{"question":"10","subquestion":null,"response":"Yes"},{"question":"11","subquestion":"110","response":"3"}]}]}`

func TestDecomposeResponse_Scenario(t *testing.T) {
	rows, err := survey.DecomposeResponse(5, nil, []byte(scenarioPayload))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, models.Responsedetail{ResponseID: 5, QuestiongroupID: 1, QuestionID: 10, Response: "Yes"}, rows[0])

	assert.Equal(t, int64(5), rows[1].ResponseID)
	assert.Equal(t, int64(1), rows[1].QuestiongroupID)
	assert.Equal(t, int64(11), rows[1].QuestionID)
	require.NotNil(t, rows[1].SubquestionID)
	assert.Equal(t, int64(110), *rows[1].SubquestionID)
	assert.Equal(t, "3", rows[1].Response)
}

func TestDecomposeResponse_LeafCountAcrossGroups(t *testing.T) {
	payload := `{"questiongroups":[
		{"questiongroup":"1","questions":[
			{"question":"1","subquestion":null,"response":"a"},
			{"question":"2","subquestion":"20","response":"b"}]},
		{"questiongroup":"2","questions":[]},
		{"questiongroup":"3","questions":[
			{"question":"3","subquestion":"30","response":""},
			{"question":"4","response":"d"}]}]}`
	qid := int64(77)

	rows, err := survey.DecomposeResponse(9, &qid, []byte(payload))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	wantSub := []bool{false, true, true, false}
	for i, r := range rows {
		assert.Equal(t, int64(9), r.ResponseID)
		require.NotNil(t, r.QuestionnaireID)
		assert.Equal(t, qid, *r.QuestionnaireID)
		assert.Equal(t, wantSub[i], r.SubquestionID != nil, "row %d", i)
		assert.Equal(t, int64(i+1), r.QuestionID)
	}
}

func TestDecomposeResponse_EmptyGroups(t *testing.T) {
	rows, err := survey.DecomposeResponse(1, nil, []byte(`{"questiongroups":[]}`))
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestDecomposeResponse_Malformed(t *testing.T) {
	cases := map[string]string{
		"unknown field":        `{"foo":1}`,
		"not json":             `questiongroups`,
		"empty":                ``,
		"null groups":          `{"questiongroups":null}`,
		"missing questions":    `{"questiongroups":[{"questiongroup":"1"}]}`,
		"missing group id":     `{"questiongroups":[{"questions":[]}]}`,
		"non numeric group":    `{"questiongroups":[{"questiongroup":"x","questions":[]}]}`,
		"non numeric question": `{"questiongroups":[{"questiongroup":"1","questions":[{"question":"q","subquestion":null,"response":"a"}]}]}`,
		"non numeric sub":      `{"questiongroups":[{"questiongroup":"1","questions":[{"question":"1","subquestion":"s","response":"a"}]}]}`,
		"missing response":     `{"questiongroups":[{"questiongroup":"1","questions":[{"question":"1","subquestion":null}]}]}`,
		"numeric id type":      `{"questiongroups":[{"questiongroup":1,"questions":[]}]}`,
		"trailing data":        `{"questiongroups":[]} {}`,
	}
	for name, payload := range cases {
		rows, err := survey.DecomposeResponse(1, nil, []byte(payload))
		assert.ErrorIs(t, err, fault.ErrMalformedPayload, name)
		assert.True(t, fault.IsClientError(err), name)
		assert.Empty(t, rows, name)
	}
}

func seededLoader(t *testing.T) *survey.Loader {
	t.Helper()
	raw, err := dbfs.SeedFiles.ReadFile("seed/payload_schema_v1.json")
	require.NoError(t, err)

	store := mock.NewStore()
	_, err = store.CreatePayloadSchema(context.Background(), "v1", "response payload", string(raw))
	require.NoError(t, err)

	l, err := survey.NewLoader(context.Background(), store)
	require.NoError(t, err)
	return l
}

func TestDecomposer_ValidatesAgainstSchema(t *testing.T) {
	d := survey.NewDecomposer(seededLoader(t), "v1")
	ctx := context.Background()

	rows, err := d.Decompose(ctx, 5, nil, []byte(scenarioPayload))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = d.Decompose(ctx, 5, nil, []byte(`{"questiongroups":[{"questiongroup":"1","questions":[{"question":"x1","subquestion":null,"response":"a"}]}]}`))
	assert.ErrorIs(t, err, fault.ErrMalformedPayload)

	err = d.Validate(ctx, []byte(`{"other":true}`))
	assert.ErrorIs(t, err, fault.ErrMalformedPayload)
}

func TestDecomposer_UnknownVersionFallsBackToDecode(t *testing.T) {
	d := survey.NewDecomposer(seededLoader(t), "v9")

	require.NoError(t, d.Validate(context.Background(), []byte(`{"other":true}`)))

	_, err := d.Decompose(context.Background(), 1, nil, []byte(`{"other":true}`))
	assert.ErrorIs(t, err, fault.ErrMalformedPayload)
}

package survey

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/qri-io/jsonschema"

	"github.com/garnizeh/questionnaire/pkg/fault"
	"github.com/garnizeh/questionnaire/pkg/models"
)

// Wire shape of Response.Details:
//
//	{"questiongroups":[{"questiongroup":"1","questions":[
//	  {"question":"10","subquestion":null,"response":"Yes"}]}]}
type payload struct {
	Questiongroups *[]payloadGroup `json:"questiongroups"`
}

type payloadGroup struct {
	Questiongroup *string         `json:"questiongroup"`
	Questions     *[]payloadEntry `json:"questions"`
}

type payloadEntry struct {
	Question    *string `json:"question"`
	Subquestion *string `json:"subquestion"`
	Response    *string `json:"response"`
}

func malformed(format string, args ...any) error {
	return fault.NewClientError(fmt.Sprintf(format, args...), fault.ErrMalformedPayload)
}

func parseID(field, v string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, malformed("%s %q is not an integer id", field, v)
	}
	return id, nil
}

// DecomposeResponse flattens a response payload into one Responsedetail per
// leaf question entry, in payload order. Nothing is returned on error.
func DecomposeResponse(responseID int64, questionnaireID *int64, details []byte) ([]models.Responsedetail, error) {
	dec := json.NewDecoder(bytes.NewReader(details))
	dec.DisallowUnknownFields()

	var p payload
	if err := dec.Decode(&p); err != nil {
		return nil, fault.NewClientError("decode payload", errors.Join(fault.ErrMalformedPayload, err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformed("trailing data after payload")
	}
	if p.Questiongroups == nil {
		return nil, malformed("questiongroups is required")
	}

	out := []models.Responsedetail{}
	for gi, g := range *p.Questiongroups {
		if g.Questiongroup == nil {
			return nil, malformed("questiongroups[%d].questiongroup is required", gi)
		}
		if g.Questions == nil {
			return nil, malformed("questiongroups[%d].questions is required", gi)
		}
		groupID, err := parseID("questiongroup", *g.Questiongroup)
		if err != nil {
			return nil, err
		}

		for qi, q := range *g.Questions {
			if q.Question == nil || q.Response == nil {
				return nil, malformed("questiongroups[%d].questions[%d] needs question and response", gi, qi)
			}
			questionID, err := parseID("question", *q.Question)
			if err != nil {
				return nil, err
			}

			d := models.Responsedetail{
				ResponseID:      responseID,
				QuestionnaireID: questionnaireID,
				QuestiongroupID: groupID,
				QuestionID:      questionID,
				Response:        *q.Response,
			}
			if q.Subquestion != nil {
				subID, err := parseID("subquestion", *q.Subquestion)
				if err != nil {
					return nil, err
				}
				d.SubquestionID = &subID
			}
			out = append(out, d)
		}
	}
	return out, nil
}

// SchemaSource provides compiled payload schemas by version.
type SchemaSource interface {
	GetSchema(version string) (*jsonschema.Schema, bool)
}

// Decomposer validates a payload against the configured JSON Schema version
// before decomposing it. Without a schema for the version only the strict
// decode applies.
type Decomposer struct {
	schemas SchemaSource
	version string
}

func NewDecomposer(schemas SchemaSource, version string) *Decomposer {
	return &Decomposer{schemas: schemas, version: version}
}

func (d *Decomposer) Decompose(ctx context.Context, responseID int64, questionnaireID *int64, details []byte) ([]models.Responsedetail, error) {
	if err := d.Validate(ctx, details); err != nil {
		return nil, err
	}
	return DecomposeResponse(responseID, questionnaireID, details)
}

// Validate runs only the schema stage.
func (d *Decomposer) Validate(ctx context.Context, details []byte) error {
	if d == nil || d.schemas == nil {
		return nil
	}
	schema, ok := d.schemas.GetSchema(d.version)
	if !ok || schema == nil {
		logger.Debug("no payload schema loaded", "version", d.version)
		return nil
	}

	verrs, err := schema.ValidateBytes(ctx, details)
	if err != nil {
		return fault.NewClientError("payload is not valid JSON", errors.Join(fault.ErrMalformedPayload, err))
	}
	if len(verrs) > 0 {
		var sb strings.Builder
		for _, v := range verrs {
			sb.WriteString(v.Message)
			sb.WriteString("; ")
		}
		return malformed("payload does not match schema %s: %s", d.version, sb.String())
	}
	return nil
}

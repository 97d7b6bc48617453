package models

// Domain models matching the database schema in db/migrations/0001_init.sql.
// Timestamps are unix milliseconds (UTC).

type User struct {
	ID           int64  `json:"id" db:"id"`
	Login        string `json:"login" db:"login" validate:"required"`
	Email        string `json:"email" db:"email" validate:"required,email"`
	Updated      int64  `json:"updated" db:"updated"`
	PasswordHash string `json:"password_hash,omitempty" db:"password_hash"`
}

type Questionnaire struct {
	ID                   int64  `json:"id" db:"id"`
	Name                 string `json:"name" db:"name"`
	Description          string `json:"description,omitempty" db:"description"`
	Version              string `json:"version,omitempty" db:"version"`
	Status               string `json:"status" db:"status"`
	Domain               string `json:"domain" db:"domain"`
	Lastmodifiedby       string `json:"lastmodifiedby" db:"lastmodifiedby"`
	Lastmodifieddatetime int64  `json:"lastmodifieddatetime" db:"lastmodifieddatetime"`
}

type Questiongroup struct {
	ID                   int64  `json:"id" db:"id"`
	Title                string `json:"title" db:"title"`
	Code                 string `json:"code" db:"code"`
	Position             int    `json:"position" db:"position"`
	Status               string `json:"status" db:"status"`
	Domain               string `json:"domain" db:"domain"`
	Lastmodifiedby       string `json:"lastmodifiedby" db:"lastmodifiedby"`
	Lastmodifieddatetime int64  `json:"lastmodifieddatetime" db:"lastmodifieddatetime"`
	QuestionnaireID      *int64 `json:"questionnaire,omitempty" db:"questionnaire_id"`
}

type Question struct {
	ID                   int64  `json:"id" db:"id"`
	Question             string `json:"question" db:"question"`
	Mandatory            bool   `json:"mandatory" db:"mandatory"`
	Code                 string `json:"code" db:"code"`
	Position             int    `json:"position" db:"position"`
	Status               string `json:"status" db:"status"`
	Domain               string `json:"domain" db:"domain"`
	Lastmodifiedby       string `json:"lastmodifiedby" db:"lastmodifiedby"`
	Lastmodifieddatetime int64  `json:"lastmodifieddatetime" db:"lastmodifieddatetime"`
	Type                 string `json:"type" db:"type"`
	Help                 string `json:"help,omitempty" db:"help"`
	AnswerID             *int64 `json:"answer,omitempty" db:"answer_id"`
	QuestiongroupID      *int64 `json:"questiongroup,omitempty" db:"questiongroup_id"`
}

type Subquestion struct {
	ID                   int64  `json:"id" db:"id"`
	Subquestion          string `json:"subquestion" db:"subquestion"`
	Code                 string `json:"code" db:"code"`
	Position             int    `json:"position" db:"position"`
	Status               string `json:"status" db:"status"`
	Domain               string `json:"domain" db:"domain"`
	Lastmodifiedby       string `json:"lastmodifiedby" db:"lastmodifiedby"`
	Lastmodifieddatetime int64  `json:"lastmodifieddatetime" db:"lastmodifieddatetime"`
	QuestionID           *int64 `json:"question,omitempty" db:"question_id"`
}

type Answer struct {
	ID                   int64  `json:"id" db:"id"`
	Answer               string `json:"answer" db:"answer"`
	Code                 string `json:"code" db:"code"`
	Position             int    `json:"position" db:"position"`
	Status               string `json:"status" db:"status"`
	Domain               string `json:"domain" db:"domain"`
	Lastmodifiedby       string `json:"lastmodifiedby" db:"lastmodifiedby"`
	Lastmodifieddatetime int64  `json:"lastmodifieddatetime" db:"lastmodifieddatetime"`
	QuestionID           *int64 `json:"question,omitempty" db:"question_id"`
}

// Response is one submission of a questionnaire. Details holds the raw
// questiongroups payload exactly as it was submitted.
type Response struct {
	ID                   int64   `json:"id" db:"id"`
	Details              string  `json:"details" db:"details"`
	Status               string  `json:"status" db:"status"`
	Lastmodifiedby       string  `json:"lastmodifiedby" db:"lastmodifiedby"`
	Lastmodifieddatetime int64   `json:"lastmodifieddatetime" db:"lastmodifieddatetime"`
	Domain               string  `json:"domain" db:"domain"`
	QuestionnaireID      int64   `json:"questionnaire" db:"questionnaire_id"`
	Username             *string `json:"username,omitempty" db:"username"`
}

// Responsedetail is a single leaf answer extracted from Response.Details.
type Responsedetail struct {
	ID              int64  `json:"id" db:"id"`
	ResponseID      int64  `json:"responseId" db:"response_id"`
	QuestionnaireID *int64 `json:"questionnaireId,omitempty" db:"questionnaire_id"`
	QuestiongroupID int64  `json:"questiongroupId" db:"questiongroup_id"`
	QuestionID      int64  `json:"questionId" db:"question_id"`
	SubquestionID   *int64 `json:"subquestionId,omitempty" db:"subquestion_id"`
	Response        string `json:"response" db:"response"`
}

// Responsembr links a Response to an external asset.
type Responsembr struct {
	ID                   int64  `json:"id" db:"id"`
	Status               string `json:"status" db:"status"`
	Lastmodifiedby       string `json:"lastmodifiedby" db:"lastmodifiedby"`
	Lastmodifieddatetime int64  `json:"lastmodifieddatetime" db:"lastmodifieddatetime"`
	Domain               string `json:"domain" db:"domain"`
	AssetID              int64  `json:"asset" db:"asset_id"`
	ResponseID           int64  `json:"response" db:"response_id"`
}

// PayloadSchema is a stored JSON Schema used to validate response payloads.
type PayloadSchema struct {
	ID          int64  `json:"id" db:"id"`
	Version     string `json:"version" db:"version"`
	Description string `json:"description,omitempty" db:"description"`
	SchemaJSON  string `json:"schema_json" db:"schema_json"`
	Created     int64  `json:"created" db:"created"`
	Updated     int64  `json:"updated" db:"updated"`
}

// SearchHit is one match returned by the search index.
type SearchHit struct {
	Entity   string `json:"entity" db:"entity"`
	EntityID int64  `json:"entity_id" db:"entity_id"`
	Body     string `json:"body" db:"body"`
}

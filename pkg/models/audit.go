package models

// Touch records who last modified an entity and when (unix millis).

func (q *Questionnaire) Touch(by string, at int64) { q.Lastmodifiedby, q.Lastmodifieddatetime = by, at }
func (g *Questiongroup) Touch(by string, at int64) { g.Lastmodifiedby, g.Lastmodifieddatetime = by, at }
func (q *Question) Touch(by string, at int64)      { q.Lastmodifiedby, q.Lastmodifieddatetime = by, at }
func (s *Subquestion) Touch(by string, at int64)   { s.Lastmodifiedby, s.Lastmodifieddatetime = by, at }
func (a *Answer) Touch(by string, at int64)        { a.Lastmodifiedby, a.Lastmodifieddatetime = by, at }
func (r *Response) Touch(by string, at int64)      { r.Lastmodifiedby, r.Lastmodifieddatetime = by, at }
func (m *Responsembr) Touch(by string, at int64)   { m.Lastmodifiedby, m.Lastmodifieddatetime = by, at }

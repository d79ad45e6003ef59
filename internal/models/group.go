package models

// Group mirrors one row of the groups table. A group belongs to exactly one
// unit and owns a set of sessions.
type Group struct {
	ID           int     `db:"id" json:"id"`
	UnitKey      *string `db:"unit_key" json:"unit_key,omitempty"`
	HalfSemester int     `db:"half_semester" json:"half_semester"`

	SessionIDs []int `db:"-" json:"-"`
}

// Session mirrors one row of the sessions table.
type Session struct {
	ID        int    `db:"id" json:"id"`
	GroupID   *int   `db:"group_id" json:"group_id,omitempty"`
	Day       string `db:"day" json:"day"`
	Time      int    `db:"time" json:"time"`
	Rhythm    int    `db:"rhythm" json:"rhythm"`
	Duration  int    `db:"duration" json:"duration"`
	Tentative bool   `db:"tentative" json:"tentative"`
}

package models

// CourseDegree enumerates the degrees a course can be offered for.
type CourseDegree string

const (
	DegreeBachelor CourseDegree = "bk"
	DegreeMaster   CourseDegree = "ma"
)

// Kzfa marks a course as a major ("H", Hauptfach) or minor ("N", Nebenfach).
type Kzfa string

const (
	KzfaMajor Kzfa = "H"
	KzfaMinor Kzfa = "N"
)

// Course mirrors one row of the courses table. MajorKeys and MinorKeys carry
// the raw relation keys read from the course_majors/course_minors join tables;
// they are resolved into wrapper references during the nested load pass.
type Course struct {
	ID           int          `db:"id" json:"id"`
	Key          string       `db:"course_key" json:"key"`
	ShortName    string       `db:"short_name" json:"short_name"`
	LongName     string       `db:"long_name" json:"long_name"`
	Degree       CourseDegree `db:"degree" json:"degree"`
	PO           int          `db:"po" json:"po"`
	CreditPoints int          `db:"credit_points" json:"credit_points"`
	Kzfa         Kzfa         `db:"kzfa" json:"kzfa"`

	MajorKeys []string `db:"-" json:"-"`
	MinorKeys []string `db:"-" json:"-"`
}

// IsMajor reports whether the course is studied as a major.
func (c *Course) IsMajor() bool {
	return c.Kzfa == KzfaMajor
}

// IsMinor reports whether the course is studied as a minor.
func (c *Course) IsMinor() bool {
	return c.Kzfa == KzfaMinor
}

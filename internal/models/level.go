package models

// Level mirrors one row of the levels table. The min/max and credit-point
// columns are nullable; callers read them through the wrapper, which surfaces
// absent values with the -1 sentinel so that 0 stays a valid bound.
type Level struct {
	ID              int    `db:"id" json:"id"`
	Art             string `db:"art" json:"art"`
	Name            string `db:"name" json:"name"`
	Tm              string `db:"tm" json:"tm"`
	Min             *int   `db:"min" json:"min,omitempty"`
	Max             *int   `db:"max" json:"max,omitempty"`
	MinCreditPoints *int   `db:"min_credit_points" json:"min_credit_points,omitempty"`
	MaxCreditPoints *int   `db:"max_credit_points" json:"max_credit_points,omitempty"`
	ParentID        *int   `db:"parent_id" json:"parent_id,omitempty"`

	// CourseKey is resolved from the course_levels join table, ModuleKeys
	// from module_levels.
	CourseKey  *string  `db:"-" json:"-"`
	ModuleKeys []string `db:"-" json:"-"`
}

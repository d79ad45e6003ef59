package models

// Module mirrors one row of the modules table plus the raw keys of its
// related abstract units and courses.
type Module struct {
	ID            int    `db:"id" json:"id"`
	Key           string `db:"module_key" json:"key"`
	Title         string `db:"title" json:"title"`
	Pordnr        int    `db:"pordnr" json:"pordnr"`
	Bundled       bool   `db:"bundled" json:"bundled"`
	ElectiveUnits int    `db:"elective_units" json:"elective_units"`

	AbstractUnitKeys []string `db:"-" json:"-"`
	CourseKeys       []string `db:"-" json:"-"`
}

// ModuleLevel links one course, one module and one level. Any of the three
// references may be absent in a partially damaged store.
type ModuleLevel struct {
	ID        int     `db:"id" json:"id"`
	CourseKey *string `db:"course_key" json:"course_key,omitempty"`
	ModuleKey *string `db:"module_key" json:"module_key,omitempty"`
	LevelID   *int    `db:"level_id" json:"level_id,omitempty"`
}

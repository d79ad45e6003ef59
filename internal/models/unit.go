package models

// AbstractUnit mirrors one row of the abstract_units table.
type AbstractUnit struct {
	ID    int    `db:"id" json:"id"`
	Key   string `db:"unit_key" json:"key"`
	Title string `db:"title" json:"title"`

	ModuleKeys []string `db:"-" json:"-"`
	UnitKeys   []string `db:"-" json:"-"`
}

// Unit mirrors one row of the units table.
type Unit struct {
	ID    int    `db:"id" json:"id"`
	Key   string `db:"unit_key" json:"key"`
	Title string `db:"title" json:"title"`

	AbstractUnitKeys []string `db:"-" json:"-"`
	GroupIDs         []int    `db:"-" json:"-"`
}

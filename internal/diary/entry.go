package diary

// Entry is a single measurement within a day.
type Entry struct {
	Time    string  `json:"time" bson:"time"`
	Sugar   float64 `json:"sugar" bson:"sugar"`
	Insulin float64 `json:"insulin" bson:"insulin"`
	Notes   string  `json:"notes,omitempty" bson:"notes,omitempty"`
}

// DayRecord holds all measurements for one calendar date ("YYYY-MM-DD").
type DayRecord struct {
	Date    string  `json:"date" bson:"_id"`
	Entries []Entry `json:"data" bson:"data"`
}

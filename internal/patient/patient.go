package patient

import "time"

// RecordID is the fixed key of the singleton profile record.
const RecordID = "patient"

type Profile struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Age         int       `json:"age,omitempty" bson:"age,omitempty"`
	Weight      float64   `json:"weight,omitempty" bson:"weight,omitempty"`
	InsulinType string    `json:"insulinType" bson:"insulinType"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

func New(name string, age int, weight float64, insulinType string) *Profile {
	return &Profile{
		ID:          RecordID,
		Name:        name,
		Age:         age,
		Weight:      weight,
		InsulinType: insulinType,
	}
}

package model

// Gender selects one of the two name pools
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Label is the literal answer used for gender fields without options
func (g Gender) Label() string {
	if g == GenderFemale {
		return "Female"
	}
	return "Male"
}

// NameEntry is a stored first name
type NameEntry struct {
	Name   string `json:"name" bson:"name" yaml:"name"`
	Gender Gender `json:"gender" bson:"gender" yaml:"gender"`
}

// NameLists are the seed lists for a session's name pool
type NameLists struct {
	Male   []string `json:"male" yaml:"male"`
	Female []string `json:"female" yaml:"female"`
}

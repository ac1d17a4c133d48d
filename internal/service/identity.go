package service

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"

	"formpilot/internal/model"
)

// Word lists used to read a gender out of a sampled answer
var (
	femaleWords = []string{"female", "woman", "girl", "she", "lady", "f"}
	maleWords   = []string{"male", "man", "boy", "he", "gentleman", "m"}
)

// Keywords used to pick the matching option of a secondary gender field
var genderOptionKeywords = map[model.Gender]map[string]bool{
	model.GenderMale:   {"male": true, "m": true, "man": true, "boy": true},
	model.GenderFemale: {"female": true, "f": true, "woman": true, "girl": true},
}

// Identity is the synthetic respondent of one submission
type Identity struct {
	Gender model.Gender
	Name   string
	Email  string

	// DriverID is the gender question whose sampled answer decided Gender
	DriverID     string
	DriverAnswer string
}

// IdentityCoordinator derives one consistent identity per submission and
// answers the name, gender and email fields from it.
type IdentityCoordinator struct {
	names NameDrawer
	rng   *rand.Rand
}

// NewIdentityCoordinator creates a coordinator drawing names from names
func NewIdentityCoordinator(names NameDrawer, rng *rand.Rand) *IdentityCoordinator {
	return &IdentityCoordinator{names: names, rng: rng}
}

// Derive picks the gender, then a name of that gender and an email built from it.
// A name is only drawn when an included field asks for a name or an email, so
// forms without such fields never consume the pool and keep running once it is empty.
func (c *IdentityCoordinator) Derive(form *model.Form, weights model.WeightTable, fields map[string]model.FieldConfig) (*Identity, error) {
	id := &Identity{Gender: model.GenderMale}
	if c.rng.IntN(2) == 0 {
		id.Gender = model.GenderFemale
	}

	if driver := genderDriver(form, fields); driver != nil {
		id.DriverID = driver.ID
		id.DriverAnswer = PickWeighted(c.rng, driver.Options, weights[driver.ID])
		if g, ok := InferGender(id.DriverAnswer); ok {
			id.Gender = g
		}
	}

	if !needsName(form, fields) {
		return id, nil
	}
	name, err := c.names.Draw(id.Gender)
	if err != nil {
		return nil, err
	}
	id.Name = name
	id.Email = DeriveEmail(name, c.rng)
	return id, nil
}

// Resolve answers q from the identity. ok is false when q is not an identity field.
func (c *IdentityCoordinator) Resolve(id *Identity, q *model.Question, cfg model.FieldConfig, weights map[string]int) (value string, ok bool) {
	if q.ID == id.DriverID {
		return id.DriverAnswer, true
	}
	switch cfg.Identity {
	case model.IdentityGender:
		if len(q.Options) == 0 {
			return id.Gender.Label(), true
		}
		if match, found := matchGenderOption(q.Options, id.Gender); found {
			return match, true
		}
		return PickWeighted(c.rng, q.Options, weights), true
	case model.IdentityName:
		return id.Name, true
	case model.IdentityEmail:
		return id.Email, true
	}
	return "", false
}

// InferGender reads a gender from an answer. A listed word must be the whole
// answer, or its first or last space-separated word. Female words are checked first.
func InferGender(answer string) (model.Gender, bool) {
	lower := strings.ToLower(strings.TrimSpace(answer))
	if matchesWord(lower, femaleWords) {
		return model.GenderFemale, true
	}
	if matchesWord(lower, maleWords) {
		return model.GenderMale, true
	}
	return "", false
}

// DeriveEmail lowercases the name, drops whitespace and appends 0-999 and a mail domain
func DeriveEmail(name string, rng *rand.Rand) string {
	local := strings.ToLower(strings.Join(strings.Fields(name), ""))
	return local + strconv.Itoa(rng.IntN(1000)) + "@gmail.com"
}

func matchesWord(lower string, words []string) bool {
	for _, w := range words {
		if lower == w || strings.HasPrefix(lower, w+" ") || strings.HasSuffix(lower, " "+w) {
			return true
		}
	}
	return false
}

// matchGenderOption finds the first option containing a keyword of the gender as a whole word
func matchGenderOption(options []string, gender model.Gender) (string, bool) {
	keywords := genderOptionKeywords[gender]
	for _, opt := range options {
		words := strings.FieldsFunc(strings.ToLower(opt), func(r rune) bool {
			return !unicode.IsLetter(r)
		})
		for _, w := range words {
			if keywords[w] {
				return opt, true
			}
		}
	}
	return "", false
}

// genderDriver is the first included gender field that offers options
func genderDriver(form *model.Form, fields map[string]model.FieldConfig) *model.Question {
	for i := range form.Questions {
		q := &form.Questions[i]
		cfg := fieldConfig(fields, q)
		if cfg.Include && cfg.Identity == model.IdentityGender && len(q.Options) > 0 {
			return q
		}
	}
	return nil
}

func needsName(form *model.Form, fields map[string]model.FieldConfig) bool {
	for i := range form.Questions {
		cfg := fieldConfig(fields, &form.Questions[i])
		if cfg.Include && (cfg.Identity == model.IdentityName || cfg.Identity == model.IdentityEmail) {
			return true
		}
	}
	return false
}

// fieldConfig returns the configured setup, or the default for questions without one
func fieldConfig(fields map[string]model.FieldConfig, q *model.Question) model.FieldConfig {
	if cfg, ok := fields[q.ID]; ok {
		return cfg
	}
	return model.FieldConfig{Include: true, Identity: model.DetectIdentity(q.Title)}
}

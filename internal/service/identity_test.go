package service

import (
	"math/rand/v2"
	"strings"
	"testing"

	"formpilot/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityForm(genderOptions ...string) *model.Form {
	return &model.Form{
		FormID: "f",
		Questions: []model.Question{
			{ID: "g", Title: "Gender", Kind: model.KindMultipleChoice, Options: genderOptions},
			{ID: "n", Title: "Your name", Kind: model.KindShortAnswer},
			{ID: "e", Title: "Email address", Kind: model.KindShortAnswer},
		},
	}
}

func TestInferGender(t *testing.T) {
	tests := []struct {
		answer string
		want   model.Gender
		ok     bool
	}{
		{"Female", model.GenderFemale, true},
		{"Male", model.GenderMale, true},
		{"F", model.GenderFemale, true},
		{"m", model.GenderMale, true},
		{"I am a woman", model.GenderFemale, true},
		{"Man or boy", model.GenderMale, true},
		{"  LADY ", model.GenderFemale, true},
		{"Prefer not to say", "", false},
		{"she/her", "", false},
		{"Other", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			got, ok := InferGender(tt.answer)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveFemaleDriver(t *testing.T) {
	names := NewNamePool(model.NameLists{Male: []string{"Bob"}, Female: []string{"Mary Ann"}}, rand.New(rand.NewPCG(1, 1)))
	coord := NewIdentityCoordinator(names, rand.New(rand.NewPCG(9, 9)))

	weights := model.WeightTable{"g": {"Female": 100, "Male": 0}}
	id, err := coord.Derive(identityForm("Female", "Male"), weights, nil)
	require.NoError(t, err)

	assert.Equal(t, model.GenderFemale, id.Gender)
	assert.Equal(t, "g", id.DriverID)
	assert.Equal(t, "Female", id.DriverAnswer)
	assert.Equal(t, "Mary Ann", id.Name)
	assert.True(t, strings.HasPrefix(id.Email, "maryann"), id.Email)
	assert.True(t, strings.HasSuffix(id.Email, "@gmail.com"), id.Email)
	assert.Equal(t, 1, names.Remaining(model.GenderMale))
}

func TestDeriveUnmatchedOptionsFallsBackToCoinFlip(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		names := NewNamePool(model.NameLists{Male: []string{"Bob"}, Female: []string{"Amy"}}, rand.New(rand.NewPCG(seed, 1)))
		coord := NewIdentityCoordinator(names, rand.New(rand.NewPCG(seed, 2)))

		id, err := coord.Derive(identityForm("Prefer not to say", "Other"), nil, nil)
		require.NoError(t, err)
		assert.Contains(t, []string{"Prefer not to say", "Other"}, id.DriverAnswer)
		if id.Gender == model.GenderFemale {
			assert.Equal(t, "Amy", id.Name)
		} else {
			assert.Equal(t, model.GenderMale, id.Gender)
			assert.Equal(t, "Bob", id.Name)
		}
	}
}

func TestDeriveSkipsNameDrawWithoutNameFields(t *testing.T) {
	form := &model.Form{Questions: []model.Question{
		{ID: "g", Title: "Sex", Kind: model.KindDropdown, Options: []string{"M", "F"}},
		{ID: "q", Title: "Favourite fruit", Kind: model.KindShortAnswer},
	}}
	// an empty pool would fail any draw
	coord := NewIdentityCoordinator(NewNamePool(model.NameLists{}, rand.New(rand.NewPCG(1, 1))), rand.New(rand.NewPCG(2, 2)))

	id, err := coord.Derive(form, model.WeightTable{"g": {"F": 100}}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.GenderFemale, id.Gender)
	assert.Empty(t, id.Name)
}

func TestDerivePoolExhausted(t *testing.T) {
	coord := NewIdentityCoordinator(NewNamePool(model.NameLists{}, rand.New(rand.NewPCG(1, 1))), rand.New(rand.NewPCG(2, 2)))
	_, err := coord.Derive(identityForm("Male"), nil, nil)
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestDeriveExcludedGenderFieldDoesNotDrive(t *testing.T) {
	names := NewNamePool(model.NameLists{Male: []string{"Bob"}, Female: []string{"Amy"}}, rand.New(rand.NewPCG(1, 1)))
	coord := NewIdentityCoordinator(names, rand.New(rand.NewPCG(2, 2)))

	fields := map[string]model.FieldConfig{"g": {Include: false, Identity: model.IdentityGender}}
	id, err := coord.Derive(identityForm("Female", "Male"), nil, fields)
	require.NoError(t, err)
	assert.Empty(t, id.DriverID)
}

func TestResolveSecondaryGenderField(t *testing.T) {
	coord := NewIdentityCoordinator(nil, rand.New(rand.NewPCG(1, 1)))
	female := &Identity{Gender: model.GenderFemale, DriverID: "g", DriverAnswer: "Female"}
	male := &Identity{Gender: model.GenderMale}
	cfg := model.FieldConfig{Include: true, Identity: model.IdentityGender}

	// "female" contains "male"; matching is by whole word
	q := &model.Question{ID: "s", Options: []string{"Male", "Female"}}
	v, ok := coord.Resolve(female, q, cfg, nil)
	require.True(t, ok)
	assert.Equal(t, "Female", v)
	v, _ = coord.Resolve(male, q, cfg, nil)
	assert.Equal(t, "Male", v)

	v, _ = coord.Resolve(female, &model.Question{ID: "s2", Options: []string{"A man", "A woman"}}, cfg, nil)
	assert.Equal(t, "A woman", v)

	// no keyword: weighted sampling over the options
	v, _ = coord.Resolve(female, &model.Question{ID: "s3", Options: []string{"X", "Y"}}, cfg, map[string]int{"Y": 100})
	assert.Equal(t, "Y", v)

	// no options: literal label
	v, _ = coord.Resolve(female, &model.Question{ID: "s4", Kind: model.KindShortAnswer}, cfg, nil)
	assert.Equal(t, "Female", v)

	// the driver reuses its drawn answer
	v, _ = coord.Resolve(female, &model.Question{ID: "g", Options: []string{"Male", "Female"}}, cfg, nil)
	assert.Equal(t, "Female", v)
}

func TestResolveNonIdentityField(t *testing.T) {
	coord := NewIdentityCoordinator(nil, rand.New(rand.NewPCG(1, 1)))
	_, ok := coord.Resolve(&Identity{}, &model.Question{ID: "x"}, model.FieldConfig{Include: true}, nil)
	assert.False(t, ok)
}

func TestDeriveEmail(t *testing.T) {
	rng := rand.New(rand.NewPCG(4, 4))
	for i := 0; i < 50; i++ {
		email := DeriveEmail("Anna  Maria\tLopez", rng)
		require.True(t, strings.HasPrefix(email, "annamarialopez"), email)
		require.True(t, strings.HasSuffix(email, "@gmail.com"), email)
		digits := strings.TrimSuffix(strings.TrimPrefix(email, "annamarialopez"), "@gmail.com")
		assert.NotEmpty(t, digits)
		assert.LessOrEqual(t, len(digits), 3)
	}
}

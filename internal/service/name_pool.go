package service

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"formpilot/internal/model"
)

// NameDrawer hands out names for one gender without repetition
type NameDrawer interface {
	Draw(gender model.Gender) (string, error)
}

// NamePool holds two shuffled stacks of names. Draw pops from the stack for
// the requested gender; a popped name is never returned again. The pool only
// refills through an explicit Reseed.
type NamePool struct {
	mu     sync.Mutex
	male   []string
	female []string
}

// NewNamePool copies and shuffles the lists
func NewNamePool(lists model.NameLists, rng *rand.Rand) *NamePool {
	p := &NamePool{}
	p.Reseed(lists, rng)
	return p
}

// Reseed replaces both stacks with fresh shuffled copies of the lists
func (p *NamePool) Reseed(lists model.NameLists, rng *rand.Rand) {
	male := append([]string(nil), lists.Male...)
	female := append([]string(nil), lists.Female...)
	rng.Shuffle(len(male), func(i, j int) { male[i], male[j] = male[j], male[i] })
	rng.Shuffle(len(female), func(i, j int) { female[i], female[j] = female[j], female[i] })

	p.mu.Lock()
	defer p.mu.Unlock()
	p.male = male
	p.female = female
}

// Draw pops a name, failing with ErrPoolExhausted once the stack is empty
func (p *NamePool) Draw(gender model.Gender) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stack := &p.male
	if gender == model.GenderFemale {
		stack = &p.female
	}
	n := len(*stack)
	if n == 0 {
		return "", fmt.Errorf("%w for %s, no more unique names available", ErrPoolExhausted, gender)
	}
	name := (*stack)[n-1]
	*stack = (*stack)[:n-1]
	return name, nil
}

// Remaining returns how many names are left for a gender
func (p *NamePool) Remaining(gender model.Gender) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gender == model.GenderFemale {
		return len(p.female)
	}
	return len(p.male)
}

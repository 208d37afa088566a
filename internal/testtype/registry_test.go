package testtype

import (
	"testing"

	"moonbench/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dummyRule(name string) Rule {
	return Rule{
		Name:      name,
		MinWindow: 10,
		Commands:  func(domain.RunConfig) []string { return nil },
		Extract: func([]domain.GcodeEntry, domain.RunConfig, bool) (float64, error) {
			return 0, nil
		},
	}
}

func TestRegisterAndLookup(t *testing.T) {
	Register(dummyRule("registry-test-a"))

	rule, err := Lookup("registry-test-a")
	require.NoError(t, err)
	assert.Equal(t, "registry-test-a", rule.Name)
	assert.Equal(t, 10, rule.MinWindow)
}

func TestLookupUnknownListsKnownTypes(t *testing.T) {
	Register(dummyRule("registry-test-b"))

	_, err := Lookup("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry-test-b")
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register(dummyRule("registry-test-c"))
	assert.Panics(t, func() { Register(dummyRule("registry-test-c")) })
}

func TestRegisterIncompleteRulePanics(t *testing.T) {
	assert.Panics(t, func() { Register(Rule{Name: "incomplete"}) })
}

func TestListSorted(t *testing.T) {
	Register(dummyRule("registry-test-z"))
	Register(dummyRule("registry-test-d"))

	names := Names()
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i])
	}
}

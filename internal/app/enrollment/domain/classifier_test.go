package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_Classify(t *testing.T) {
	classifier := NewClassifier(nil)

	testCases := []struct {
		name     string
		event    Event
		expected Operation
	}{
		{name: "tracked purchase", event: Event{Type: EventOrderCompleted, OrderID: "1", ProductName: "MSM Live 2026"}, expected: OpIncrement},
		{name: "tracked refund", event: Event{Type: EventOrderRefunded, OrderID: "1", ProductName: "MSM Live 2026"}, expected: OpDecrement},
		{name: "case insensitive", event: Event{Type: EventOrderCompleted, OrderID: "1", ProductName: "THE SALES MACHINE"}, expected: OpIncrement},
		{name: "any keyword is enough", event: Event{Type: EventOrderCompleted, OrderID: "1", ProductName: "Live Cooking Class"}, expected: OpIncrement},
		{name: "untracked product", event: Event{Type: EventOrderCompleted, OrderID: "1", ProductName: "Budgeting 101"}, expected: OpIgnore},
		{name: "missing product", event: Event{Type: EventOrderCompleted, OrderID: "1"}, expected: OpIgnore},
		{name: "renewal", event: Event{Type: EventSubscriptionCharged, ProductName: "MSM Live"}, expected: OpIgnore},
		{name: "failed charge", event: Event{Type: EventChargeFailed, ProductName: "MSM Live"}, expected: OpIgnore},
		{name: "unknown type", event: Event{Type: "order.updated", ProductName: "MSM Live"}, expected: OpIgnore},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			class := classifier.Classify(tc.event)
			assert.Equal(t, tc.expected, class.Operation)
			assert.NotEmpty(t, class.Reason)
		})
	}
}

func TestNewClassifier_Keywords(t *testing.T) {
	assert.Equal(t, DefaultProductKeywords, NewClassifier(nil).Keywords())
	assert.Equal(t, DefaultProductKeywords, NewClassifier([]string{" ", ""}).Keywords())

	custom := NewClassifier([]string{" Academy ", "BOOTCAMP"})
	assert.Equal(t, []string{"academy", "bootcamp"}, custom.Keywords())
	assert.True(t, custom.MatchesProduct("Growth Academy"))
	assert.False(t, custom.MatchesProduct("MSM Live"))
}

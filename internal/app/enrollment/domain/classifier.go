package domain

import "strings"

// Operation is the effect a classified event has on the ledger
type Operation string

const (
	OpIncrement Operation = "increment"
	OpDecrement Operation = "decrement"
	OpIgnore    Operation = "ignore"
)

// DefaultProductKeywords is the tracked-product keyword set.
//
// Matching is a case-insensitive substring test against any keyword, so unrelated
// products sharing a common word ("sales", "live") are counted too. That inclusion
// risk is accepted: a missed enrollment is worse than an extra one that gets refunded.
var DefaultProductKeywords = []string{"msm", "master", "sales", "machine", "live"}

// Classification is the outcome of running the classifier on one event
type Classification struct {
	Operation Operation
	Reason    string
}

// Classifier maps webhook events onto ledger operations
type Classifier struct {
	keywords []string
}

// NewClassifier creates a classifier for the given keyword set.
// An empty set falls back to DefaultProductKeywords.
func NewClassifier(keywords []string) *Classifier {
	normalized := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			normalized = append(normalized, k)
		}
	}
	if len(normalized) == 0 {
		normalized = append(normalized, DefaultProductKeywords...)
	}
	return &Classifier{keywords: normalized}
}

// Keywords returns a copy of the configured keyword set
func (c *Classifier) Keywords() []string {
	return append([]string(nil), c.keywords...)
}

// MatchesProduct reports whether the product name contains any tracked keyword
func (c *Classifier) MatchesProduct(productName string) bool {
	name := strings.ToLower(productName)
	if name == "" {
		return false
	}
	for _, k := range c.keywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}

// Classify decides what the event does to the enrollment count
func (c *Classifier) Classify(event Event) Classification {
	switch event.Type {
	case EventOrderCompleted, EventOrderRefunded:
	case EventSubscriptionCharged, EventChargeFailed:
		return Classification{Operation: OpIgnore, Reason: "event type does not affect enrollments"}
	default:
		return Classification{Operation: OpIgnore, Reason: "unhandled event type " + string(event.Type)}
	}

	if !c.MatchesProduct(event.ProductName) {
		return Classification{Operation: OpIgnore, Reason: "product is not tracked"}
	}

	if event.Type == EventOrderCompleted {
		return Classification{Operation: OpIncrement, Reason: "tracked product purchased"}
	}
	return Classification{Operation: OpDecrement, Reason: "tracked product refunded"}
}

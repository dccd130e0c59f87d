package validate

// Collector receives issues as a validation pass finds them.
type Collector interface {
	Add(issue Issue)
}

// ListCollector accumulates issues in append order. The zero value is
// ready to use.
type ListCollector struct {
	issues []Issue
}

// Add appends one issue.
func (c *ListCollector) Add(issue Issue) {
	c.issues = append(c.issues, issue)
}

// Issues returns the collected issues in the order they were added.
func (c *ListCollector) Issues() []Issue {
	return c.issues
}

// Empty reports whether nothing was collected.
func (c *ListCollector) Empty() bool {
	return len(c.issues) == 0
}

// Check returns nil when the collector is empty, otherwise one aggregate
// error carrying every collected issue.
func (c *ListCollector) Check() error {
	if c.Empty() {
		return nil
	}
	return &AggregateError{Issues: c.issues}
}

// AggregateError is the single failure raised for a non-empty collector.
type AggregateError struct {
	Issues []Issue
}

// Error renders the full formatted issue list.
func (e *AggregateError) Error() string {
	return Format(e.Issues)
}

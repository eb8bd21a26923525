package vitals

// rule is one threshold check. Rules are independent: a rule never reads
// another rule's output, and every matching rule fires.
type rule struct {
	code  string
	text  string
	fires func(Snapshot) bool
}

// rules is the fixed clinical rule table, evaluated in declaration order.
// Adding a rule means appending an entry here.
var rules = []rule{
	{
		code: "low_spo2",
		text: "Oxygen saturation below 92%",
		fires: func(s Snapshot) bool {
			v, ok := s.Number("spo2")
			return ok && v < 92
		},
	},
	{
		code: "tachycardia",
		text: "Elevated heart rate (>120 bpm)",
		fires: func(s Snapshot) bool {
			v, ok := s.Number("heart_rate")
			return ok && v > 120
		},
	},
}

// Evaluate runs every rule against snap and returns the issues that fired,
// in rule declaration order. It is pure and total: absent or non-numeric
// fields simply skip the corresponding rule, and the result is never nil.
func Evaluate(snap Snapshot) []Issue {
	issues := make([]Issue, 0, len(rules))
	for _, r := range rules {
		if r.fires(snap) {
			issues = append(issues, Issue{
				Level: SeverityHigh,
				Code:  r.code,
				Text:  r.text,
			})
		}
	}
	return issues
}

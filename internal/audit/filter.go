package audit

// DefaultAllowlist holds advisories accepted until upstream fixes land.
var DefaultAllowlist = []int{
	1523, // brave-browser#10584
}

// Filter removes allow-listed advisories from a report.
type Filter struct {
	allowed map[int]bool
}

// NewFilter creates a Filter accepting the given advisory ids.
func NewFilter(ids ...int) *Filter {
	allowed := make(map[int]bool, len(ids))
	for _, id := range ids {
		allowed[id] = true
	}
	return &Filter{allowed: allowed}
}

// Allowed reports whether id is on the allow-list.
func (f *Filter) Allowed(id int) bool {
	return f.allowed[id]
}

// Apply drops allow-listed resolutions from every action, in place.
// Applying it twice is the same as applying it once.
func (f *Filter) Apply(report *Report) {
	if report == nil {
		return
	}
	for i := range report.Actions {
		resolves := report.Actions[i].Resolves
		if resolves == nil {
			continue
		}
		kept := resolves[:0]
		for _, r := range resolves {
			if !f.allowed[r.ID] {
				kept = append(kept, r)
			}
		}
		report.Actions[i].Resolves = kept
	}
}

// Extract returns the resolutions of the first action and the subset of
// them that are not development-only. Missing actions or a missing
// resolves field yield two empty slices.
func Extract(report *Report) (resolutions []Resolution, nonDev []Resolution) {
	if report == nil || len(report.Actions) == 0 || report.Actions[0].Resolves == nil {
		return []Resolution{}, []Resolution{}
	}

	resolutions = report.Actions[0].Resolves
	nonDev = []Resolution{}
	for _, r := range resolutions {
		if !r.Dev {
			nonDev = append(nonDev, r)
		}
	}
	return resolutions, nonDev
}

// Verdict is the outcome of evaluating a report.
type Verdict struct {
	Status      int
	Resolutions []Resolution
	NonDev      []Resolution
}

// Blocking reports whether non-development vulnerabilities remain.
func (v Verdict) Blocking() bool {
	return len(v.NonDev) > 0
}

// Evaluate filters the report and derives the exit status.
func (f *Filter) Evaluate(report *Report) Verdict {
	f.Apply(report)
	resolutions, nonDev := Extract(report)

	status := 0
	if len(nonDev) > 0 {
		status = 1
	}
	return Verdict{
		Status:      status,
		Resolutions: resolutions,
		NonDev:      nonDev,
	}
}

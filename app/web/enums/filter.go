package enums

// FilterFor returns the filter selecting applications with the given status
func FilterFor(s Status) Filter {
	f, err := ParseFilter(s.String())
	if err != nil {
		return FilterAll
	}
	return f
}

// Toggle returns the filter after the status card for s is clicked.
// Clicking the currently active status resets the filter to all.
func (e Filter) Toggle(s Status) Filter {
	next := FilterFor(s)
	if next == e {
		return FilterAll
	}
	return next
}

// Status returns the status selected by the filter, false for FilterAll
func (e Filter) Status() (Status, bool) {
	if e == FilterAll {
		return Status{}, false
	}
	s, err := ParseStatus(e.String())
	if err != nil {
		return Status{}, false
	}
	return s, true
}

// Match reports whether an application with status s passes the filter
func (e Filter) Match(s Status) bool {
	if e == FilterAll {
		return true
	}
	return e.String() == s.String()
}

// IsZero reports whether the status is unset
func (e Status) IsZero() bool {
	return e.name == ""
}

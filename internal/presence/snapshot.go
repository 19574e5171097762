package presence

// Snapshot is an immutable copy of the three presence maps at one moment.
type Snapshot struct {
	VendorStatus   map[string]bool
	VendorType     map[string]string
	CategoryStatus map[string]map[string]bool
}

// Live reports vendorStatus[v] == true. Absent vendors are offline.
func (s Snapshot) Live(vendorID string) bool { return s.VendorStatus[vendorID] }

// CategoryVisible applies the default-open rule: only an explicit false hides.
func (s Snapshot) CategoryVisible(vendorID, categoryID string) bool {
	st, ok := s.CategoryStatus[vendorID][categoryID]
	return !ok || st
}

// Visible is the presence half of the visibility invariant; durable existence
// is checked by the caller.
func (s Snapshot) Visible(vendorID, categoryID string) bool {
	return s.Live(vendorID) && s.CategoryVisible(vendorID, categoryID)
}

// LiveVendors returns the ids with vendorStatus true.
func (s Snapshot) LiveVendors() []string {
	var out []string
	for id, live := range s.VendorStatus {
		if live {
			out = append(out, id)
		}
	}
	return out
}

// AsBoolMap reads a branch of bool leaves; other leaf types are skipped.
func AsBoolMap(v any) map[string]bool {
	out := map[string]bool{}
	m, _ := v.(map[string]any)
	for k, leaf := range m {
		if b, ok := leaf.(bool); ok {
			out[k] = b
		}
	}
	return out
}

func AsStringMap(v any) map[string]string {
	out := map[string]string{}
	m, _ := v.(map[string]any)
	for k, leaf := range m {
		if s, ok := leaf.(string); ok {
			out[k] = s
		}
	}
	return out
}

func AsNestedBoolMap(v any) map[string]map[string]bool {
	out := map[string]map[string]bool{}
	m, _ := v.(map[string]any)
	for k, branch := range m {
		out[k] = AsBoolMap(branch)
	}
	return out
}

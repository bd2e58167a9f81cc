package models

// Derive maps the Eisenhower pair to a priority.
func Derive(urgent, important bool) Priority {
	switch {
	case urgent && important:
		return PriorityUrgent
	case important:
		return PriorityHigh
	case urgent:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Inverse maps a priority to its Eisenhower pair. Unrecognized values map to
// the low quadrant.
func Inverse(p Priority) (urgent, important bool) {
	switch NormalizePriority(string(p)) {
	case PriorityUrgent:
		return true, true
	case PriorityHigh:
		return false, true
	case PriorityMedium:
		return true, false
	default:
		return false, false
	}
}

// ResolveEisenhower applies the normalization rule to a possibly partial
// representation: when both booleans are present they are authoritative,
// otherwise the pair is derived from priority.
func ResolveEisenhower(urgent, important *bool, priority Priority) (bool, bool) {
	if urgent != nil && important != nil {
		return *urgent, *important
	}
	return Inverse(priority)
}

// Normalize returns t with every cross-field invariant restored. It is total
// and never consults the clock: a deleted task missing its deletion time
// borrows the newest timestamp the record already carries.
func Normalize(t Task) Task {
	t = t.Clone()

	if !IsValidType(t.Type) {
		t.Type = NormalizeType(string(t.Type))
		if !IsValidType(t.Type) {
			t.Type = TypeTodo
		}
	}
	if !IsValidStatus(t.Status) {
		t.Status = NormalizeStatus(string(t.Status))
		if !IsValidStatus(t.Status) {
			t.Status = StatusActive
		}
	}
	if t.Category == "" {
		t.Category = DefaultCategory
	}

	switch t.Status {
	case StatusInbox:
		t.CompletedAt = nil
		t.DeletedAt = nil
	case StatusCompleted:
		t.Clarified = true
		t.DeletedAt = nil
		if t.CompletedAt == nil {
			t.CompletedAt = cloneTime(&t.CreatedAt)
		}
	case StatusDeleted:
		t.Clarified = true
		if t.DeletedAt == nil {
			ts := t.CreatedAt
			if t.CompletedAt != nil && t.CompletedAt.After(ts) {
				ts = *t.CompletedAt
			}
			t.DeletedAt = &ts
		}
	case StatusActive, StatusWaitingFor, StatusSomeday:
		t.Clarified = true
		t.CompletedAt = nil
		t.DeletedAt = nil
	}
	return t
}

// NormalizeAll normalizes every task, preserving order.
func NormalizeAll(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = Normalize(t)
	}
	return out
}

package seating

// Status is derived per seat, never stored.
type Status int

const (
	Available Status = iota
	Selected
	Booked
)

func (s Status) String() string {
	switch s {
	case Booked:
		return "booked"
	case Selected:
		return "selected"
	default:
		return "available"
	}
}

// StatusOf derives the status of one seat. Booked wins over selected.
func StatusOf(id string, booked map[string]bool, selection []string) Status {
	if booked[id] {
		return Booked
	}
	for _, s := range selection {
		if s == id {
			return Selected
		}
	}
	return Available
}

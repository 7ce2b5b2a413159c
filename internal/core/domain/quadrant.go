package domain

// Level is one of the two values an axis of the priority matrix can take.
type Level string

const (
	LevelHigh Level = "high"
	LevelLow  Level = "low"
)

func (l Level) Valid() bool {
	return l == LevelHigh || l == LevelLow
}

// Quadrant labels one cell of the 2x2 priority matrix.
type Quadrant string

const (
	QuadrantUrgentImportant       Quadrant = "urgent-important"
	QuadrantNotUrgentImportant    Quadrant = "not-urgent-important"
	QuadrantUrgentNotImportant    Quadrant = "urgent-not-important"
	QuadrantNotUrgentNotImportant Quadrant = "not-urgent-not-important"
)

// Quadrants lists every label in display order.
var Quadrants = []Quadrant{
	QuadrantUrgentImportant,
	QuadrantNotUrgentImportant,
	QuadrantUrgentNotImportant,
	QuadrantNotUrgentNotImportant,
}

// Classify maps (importance, urgency) to its quadrant. Anything other than
// the two literal levels is rejected.
func Classify(importance, urgency Level) (Quadrant, error) {
	if !importance.Valid() {
		return "", Validationf("importance must be high or low, got %q", importance)
	}
	if !urgency.Valid() {
		return "", Validationf("urgency must be high or low, got %q", urgency)
	}
	switch {
	case importance == LevelHigh && urgency == LevelHigh:
		return QuadrantUrgentImportant, nil
	case importance == LevelHigh:
		return QuadrantNotUrgentImportant, nil
	case urgency == LevelHigh:
		return QuadrantUrgentNotImportant, nil
	default:
		return QuadrantNotUrgentNotImportant, nil
	}
}

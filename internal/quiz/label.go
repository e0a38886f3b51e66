package quiz

// Label is the qualitative result shown when a session completes.
type Label string

const (
	LabelPerfect        Label = "perfect"
	LabelGreat          Label = "great"
	LabelGoodEffort     Label = "good effort"
	LabelKeepPracticing Label = "keep practicing"
)

// LabelFor grades score out of total. Thresholds are inclusive: exactly 70%
// is great and exactly 50% is good effort.
func LabelFor(score, total int) Label {
	switch {
	case total > 0 && score >= total:
		return LabelPerfect
	case score*10 >= total*7 && total > 0:
		return LabelGreat
	case score*2 >= total && total > 0:
		return LabelGoodEffort
	default:
		return LabelKeepPracticing
	}
}

// Message returns the sentence shown alongside the label.
func (l Label) Message() string {
	switch l {
	case LabelPerfect:
		return "Perfect score! Outstanding!"
	case LabelGreat:
		return "Great job! Well done!"
	case LabelGoodEffort:
		return "Good effort! Keep practicing!"
	default:
		return "Keep learning and try again!"
	}
}

package models

// WorkItem is one link being processed. It lives for a single iteration of the run.
type WorkItem struct {
	Index      int // 1-based position in the link list
	URL        string
	VideoID    string
	VideoPath  string // scratch download location
	OutputPath string // final still image location
}

// Status is the terminal state of a WorkItem.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailed
)

func (s Status) String() string {
	if s == StatusSuccess {
		return "success"
	}
	return "failed"
}

// Outcome is the terminal state of a WorkItem.
type Outcome struct {
	Item   WorkItem
	Status Status
	Err    error
}

// Summary holds the run totals reported once every link has been handled.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	OutputDir string
}

// Record folds an outcome into the totals.
func (s *Summary) Record(o Outcome) {
	if o.Status == StatusSuccess {
		s.Succeeded++
	} else {
		s.Failed++
	}
}

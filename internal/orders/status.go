package orders

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// processing is a declared intermediate step with no transition into it yet;
// it behaves like pending as a transition source.
var validNext = map[string]map[string]bool{
	StatusPending:    {StatusCompleted: true, StatusCancelled: true},
	StatusProcessing: {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func CanTransition(from, to string) bool {
	return validNext[from][to]
}

// openStatuses are the legal source states for approve/reject.
var openStatuses = []string{StatusPending, StatusProcessing}

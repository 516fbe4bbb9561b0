package lflist

// Test hooks (kept separate so instrumentation doesn't clutter logic).
// Only tests set them; they are nil otherwise.
var (
	// linkCASHook runs right before the CAS that links a new node after pred.
	linkCASHook func(pred, node *Node)

	// markCASHook runs right before the CAS that logically deletes target.
	markCASHook func(target *Node)
)

package ranger

import "context"

// Runner repeats wake cycles for as long as the process lives.  Boards that
// reset out of deep sleep never get past the first cycle; hosts whose sleep
// returns start the next cycle from Booting with nothing carried over.
type Runner struct {
	node   *Node
	cycles int
}

func NewRunner(node *Node) *Runner {
	return &Runner{node: node}
}

// Run cycles until ctx is done, returning ctx.Err()
func (r *Runner) Run(ctx context.Context) error {
	if err := r.node.check(); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.node.Cycle(ctx)
		r.cycles++
	}
}

// Cycles is the number of completed wake cycles
func (r *Runner) Cycles() int {
	return r.cycles
}

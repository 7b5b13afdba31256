package scheduler

// Process exit codes reported by one-shot check runs.
const (
	ExitNoChange = 0
	ExitError    = 1
	ExitNoWork   = 2
	ExitNewPosts = 3
)

// ExitCode folds check results into a process exit code and the number of
// new posts found. An error wins over new posts, and new posts win over no
// change. No results means there was no due work.
func ExitCode(results []Result) (int, int) {
	if len(results) == 0 {
		return ExitNoWork, 0
	}
	var (
		found  int
		failed bool
	)
	for _, r := range results {
		found += r.NewPosts
		if r.Err != nil || r.State == StateFailed {
			failed = true
		}
	}
	switch {
	case failed:
		return ExitError, found
	case found > 0:
		return ExitNewPosts, found
	default:
		return ExitNoChange, 0
	}
}

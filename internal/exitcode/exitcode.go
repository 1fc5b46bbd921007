package exitcode

const (
	Success        = 0
	RuntimeFailure = 1
	InvalidUsage   = 2
	InvalidConfig  = 3
	Environment    = 4
	HTTPError      = 5
	Interrupted    = 130
)

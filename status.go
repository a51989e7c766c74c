package asyncio

type Status int32

const (
	Pending Status = iota
	Success
	Failure
	Aborted
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

func (s Status) Terminal() bool {
	return s != Pending
}

package flow

import "time"

// Outcome is how an invocation ended.
type Outcome int

const (
	Completed Outcome = iota // Completed means the hook succeeded and deferred callbacks ran.
	Unchanged                // Unchanged is Completed with no configuration change since the previous run.
	Aborted                  // Aborted means the hook failed or its state could not be persisted.
)

var OutcomeTextMap = map[Outcome]string{
	Completed: "completed",
	Unchanged: "unchanged",
	Aborted:   "aborted",
}

func (o Outcome) String() string {
	return OutcomeTextMap[o]
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

var timeNow = time.Now

func EpochTime() int64 {
	return timeNow().Unix()
}

func SetTimeNowFn(f func() time.Time) {
	timeNow = f
}

func RestoreTimeNow() {
	timeNow = time.Now
}

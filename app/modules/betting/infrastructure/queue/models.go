package bettingqueue

// BettingLockJob fires at an event's betting deadline and announces that its
// predictions are frozen.
type BettingLockJob struct {
	Entity   string `json:"entity"`
	EventID  int64  `json:"event_id"`
	LeagueID int64  `json:"league_id"`
}

// Kind returns the job type identifier for River.
func (BettingLockJob) Kind() string { return "betting_lock" }

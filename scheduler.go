package trvl

// Scheduler numbers captured frames and marks every Interval-th one as a
// keyframe, starting with the first. It is not safe for concurrent use.
type Scheduler struct {
	interval int
	seq      uint32
	force    bool
}

// NewScheduler returns a scheduler emitting a keyframe every interval frames.
// interval <= 1 makes every frame a keyframe.
func NewScheduler(interval int) *Scheduler {
	return &Scheduler{interval: interval}
}

// SchedulerForRate emits one keyframe per second of capture at fps.
func SchedulerForRate(fps int) *Scheduler {
	return NewScheduler(fps)
}

func (s *Scheduler) Interval() int { return s.interval }

// Next returns the sequence number of the next frame and whether it must be
// encoded as a keyframe.
func (s *Scheduler) Next() (seq uint32, keyframe bool) {
	seq = s.seq
	s.seq++
	keyframe = s.force || s.interval <= 1 || seq%uint32(s.interval) == 0
	s.force = false
	return seq, keyframe
}

// ForceKeyframe makes the next frame a keyframe regardless of the interval.
func (s *Scheduler) ForceKeyframe() { s.force = true }

// Peek reports the sequence number Next will return.
func (s *Scheduler) Peek() uint32 { return s.seq }

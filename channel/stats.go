package channel

// Stats is a point-in-time snapshot of a channel.
type Stats struct {
	Mode          Mode
	State         State
	Len           int
	Cap           int
	ItemSize      int
	ItemsSent     uint64
	ItemsReceived uint64
	Grows         uint64 // successful unbounded growth steps
	GrowFailures  uint64
	Rejected      uint64 // sends that returned false
}

// StatsProvider is implemented by every channel flavor and by Inspector.
type StatsProvider interface {
	Stats() Stats
}

var (
	_ StatsProvider = (*Channel[int])(nil)
	_ StatsProvider = (*ByteChannel)(nil)
	_ StatsProvider = (*MappedChannel)(nil)
	_ StatsProvider = (*Inspector)(nil)
)

// counters has a fixed layout so that a file header can embed it.
type counters struct {
	itemsSent     uint64
	itemsReceived uint64
	grows         uint64
	growFailures  uint64
	rejected      uint64
}

func (c *counters) fill(s *Stats) {
	s.ItemsSent = c.itemsSent
	s.ItemsReceived = c.itemsReceived
	s.Grows = c.grows
	s.GrowFailures = c.growFailures
	s.Rejected = c.rejected
}

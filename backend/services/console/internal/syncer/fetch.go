package syncer

// FetchKind names a tracked backend read.
type FetchKind string

const (
	FetchStations   FetchKind = "stations"
	FetchVehicles   FetchKind = "vehicles"
	FetchStatistics FetchKind = "statistics"
	FetchAuth       FetchKind = "auth"
)

// FetchStatus is the per-kind state machine: idle -> in_flight -> succeeded | failed.
type FetchStatus string

const (
	StatusIdle      FetchStatus = "idle"
	StatusInFlight  FetchStatus = "in_flight"
	StatusSucceeded FetchStatus = "succeeded"
	StatusFailed    FetchStatus = "failed"
)

// fetchState counts overlapping requests. Overlaps are not deduplicated; the status reports
// in_flight until the last one settles and then the outcome of whichever settled last.
type fetchState struct {
	inFlight int
	last     FetchStatus
}

func (f *fetchState) status() FetchStatus {
	if f.inFlight > 0 {
		return StatusInFlight
	}
	if f.last == "" {
		return StatusIdle
	}
	return f.last
}

func (c *Controller) beginFetch(kind FetchKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchLocked(kind).inFlight++
	c.observer.ObserveFetch(string(kind), string(StatusInFlight))
}

func (c *Controller) endFetchLocked(kind FetchKind, err error) {
	f := c.fetchLocked(kind)
	if f.inFlight > 0 {
		f.inFlight--
	}
	f.last = StatusSucceeded
	if err != nil {
		f.last = StatusFailed
	}
	c.observer.ObserveFetch(string(kind), string(f.last))
}

func (c *Controller) fetchLocked(kind FetchKind) *fetchState {
	f, ok := c.fetches[kind]
	if !ok {
		f = &fetchState{}
		c.fetches[kind] = f
	}
	return f
}

// FetchState reports the current status of kind.
func (c *Controller) FetchState(kind FetchKind) FetchStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchLocked(kind).status()
}

func (c *Controller) fetchesLocked() map[string]string {
	out := make(map[string]string, len(c.fetches))
	for kind, f := range c.fetches {
		out[string(kind)] = string(f.status())
	}
	return out
}

package metrics

type Collector interface {
	// Add one failed drain to metrics
	DrainError()
	// Add one completed drain, the number of messages it removed and, if supported,
	// the drain time to another metric
	DrainSuccess(count int, timeMs int64)
	// Add one failed send to metrics
	SendError()
	// Add one accepted send and, if supported, the send time to another metric
	SendSuccess(timeMs int64)
}

package urlbridge

// Observer receives bridge activity, typically to drive metrics. Methods must
// be safe for concurrent use. Gauges is called with the guard held and must
// not call back into the bridge; every other method is called outside it.
type Observer interface {
	EndpointGranted(secure bool)
	EndpointDenied(reason error)
	EndpointsReleased(endpoints, requests int)
	RequestDelivered()
	RequestDropped()
	OutcomeTaken()
	RequestTimedOut()
	Gauges(endpoints, requests int)
}

type nopObserver struct{}

func (nopObserver) EndpointGranted(bool)       {}
func (nopObserver) EndpointDenied(error)       {}
func (nopObserver) EndpointsReleased(int, int) {}
func (nopObserver) RequestDelivered()          {}
func (nopObserver) RequestDropped()            {}
func (nopObserver) OutcomeTaken()              {}
func (nopObserver) RequestTimedOut()           {}
func (nopObserver) Gauges(int, int)            {}

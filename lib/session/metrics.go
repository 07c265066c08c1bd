package session

// Metrics receives lifecycle and traffic notifications from a Manager. Calls
// are made with the session's lock held and must not block.
type Metrics interface {
	PhaseChanged(session string, from, to Phase)
	ConnectFailed(session string)
	CommandSent(session, verb string)
	DispatchFailed(session, verb string)
	MessageReceived(session, verb string)
	EventDropped(session string, n int)
	SessionRemoved(session string)
}

type nopMetrics struct{}

func (nopMetrics) PhaseChanged(string, Phase, Phase) {}
func (nopMetrics) ConnectFailed(string)              {}
func (nopMetrics) CommandSent(string, string)        {}
func (nopMetrics) DispatchFailed(string, string)     {}
func (nopMetrics) MessageReceived(string, string)    {}
func (nopMetrics) EventDropped(string, int)          {}
func (nopMetrics) SessionRemoved(string)             {}

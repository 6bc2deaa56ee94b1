package registry

// pauseSwitch gates certificate mutations. The zero value is running.
type pauseSwitch struct {
	paused bool
}

func (p *pauseSwitch) set(paused bool) {
	p.paused = paused
}

func (p *pauseSwitch) isPaused() bool {
	return p.paused
}

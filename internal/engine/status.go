package engine

import "time"

// status is a transient one-line notification
type status struct {
	text string
	at   time.Time
}

func (e *Engine) notify(text string) {
	e.status = status{text: text, at: e.clk.Now()}
}

// Notify raises a transient status message
func (e *Engine) Notify(text string) {
	e.notify(text)
}

// Status returns the current status text, or "" once it has expired
func (e *Engine) Status() string {
	if e.status.text == "" || e.clk.Since(e.status.at) >= e.cfg.StatusTTL {
		return ""
	}
	return e.status.text
}

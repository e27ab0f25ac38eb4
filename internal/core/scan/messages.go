package scan

import "github.com/phensley/less-scanner/internal/engine/counter"

// message is the closed set of requests a worker accepts on its inbox.
type message interface {
	isMessage()
}

// scanMessage asks a worker to read, parse and classify one file.
type scanMessage struct {
	path string
}

// reportMessage asks a worker for its accumulated state. The worker answers
// once on reply, after every scanMessage queued before it.
type reportMessage struct {
	reply chan<- workerReport
}

// exitMessage stops the worker loop.
type exitMessage struct{}

func (scanMessage) isMessage()   {}
func (reportMessage) isMessage() {}
func (exitMessage) isMessage()   {}

type workerReport struct {
	id          int
	stats       *counter.Store
	scanned     int
	failed      int
	diagnostics []Diagnostic
	err         error
}

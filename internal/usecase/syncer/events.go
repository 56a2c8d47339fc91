package syncer

// EventEmitter receives progress notifications; the desktop shell forwards
// them to the frontend.
type EventEmitter interface {
	Emit(name string, payload any)
}

const (
	EventStarted = "sync.started"
	EventBatch   = "sync.batch"
	EventItem    = "sync.item"
	EventDone    = "sync.done"
)

func (o *Orchestrator) SetEmitter(em EventEmitter) {
	o.mu.Lock()
	o.em = em
	o.mu.Unlock()
}

func (o *Orchestrator) emit(name string, payload map[string]any) {
	o.mu.Lock()
	em := o.em
	o.mu.Unlock()
	if em != nil {
		em.Emit(name, payload)
	}
}

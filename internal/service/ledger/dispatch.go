package ledger

import "github.com/mamadbah2/stocklive/internal/domain/models"

// MultiDispatcher fans a dispatched event out to several dispatchers, e.g.
// the live hub and the collaborator webhook forwarder.
type MultiDispatcher []Dispatcher

// Dispatch hands the event to each dispatcher in order.
func (m MultiDispatcher) Dispatch(event models.Event) {
	for _, d := range m {
		d.Dispatch(event)
	}
}

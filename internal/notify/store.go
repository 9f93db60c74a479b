package notify

import "github.com/Togather-Foundation/eventdesk/internal/store"

// StoreNotifier turns event store outcomes into toasts.
type StoreNotifier struct {
	toaster Toaster
}

func NewStoreNotifier(t Toaster) *StoreNotifier {
	return &StoreNotifier{toaster: t}
}

func (n *StoreNotifier) Succeeded(op store.Op) {
	if msg := SuccessMessage(op); msg != "" {
		n.toaster.Success(msg)
	}
}

func (n *StoreNotifier) Failed(op store.Op, err *store.Error) {
	if err == nil {
		n.toaster.Error(store.FallbackMessage(op))
		return
	}
	n.toaster.Error(err.Message())
}

// SuccessMessage is "" for operations that are not announced.
func SuccessMessage(op store.Op) string {
	switch op {
	case store.OpCreate:
		return "Event created successfully!"
	case store.OpUpdate:
		return "Event updated successfully!"
	case store.OpDelete:
		return "Event deleted successfully!"
	default:
		return ""
	}
}

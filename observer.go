package gamestate

import "sync"

// Subscription detaches a listener from its source. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

type subscriptionFunc func()

func (fn subscriptionFunc) Unsubscribe() {
	if fn != nil {
		fn()
	}
}

type observer[T any] struct {
	id uint64
	fn func(T)
}

// observers is an ordered listener list. Notify delivers to a snapshot of the
// list taken before the first callback runs, so listeners may subscribe or
// unsubscribe while a notification is in flight.
type observers[T any] struct {
	next uint64
	list []observer[T]
}

func (o *observers[T]) subscribe(fn func(T)) Subscription {
	if fn == nil {
		return subscriptionFunc(nil)
	}
	o.next++
	id := o.next
	o.list = append(o.list, observer[T]{id: id, fn: fn})

	var once sync.Once
	return subscriptionFunc(func() {
		once.Do(func() { o.remove(id) })
	})
}

func (o *observers[T]) remove(id uint64) {
	for i, entry := range o.list {
		if entry.id == id {
			o.list = append(o.list[:i:i], o.list[i+1:]...)
			return
		}
	}
}

func (o *observers[T]) notify(value T) {
	if len(o.list) == 0 {
		return
	}
	snapshot := append([]observer[T](nil), o.list...)
	for _, entry := range snapshot {
		entry.fn(value)
	}
}

func (o *observers[T]) len() int {
	return len(o.list)
}

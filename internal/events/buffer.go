package events

import "sync"

type message struct {
	Kind string
	Data []byte
	next *message
}

// buffer is an unbounded FIFO queue of pending events, linked head to tail.
// Producers append under the lock; the single consumer goroutine pops
// without one.
type buffer struct {
	lock sync.Mutex
	head *message
	tail *message
	size int
}

func newBuffer() *buffer {
	return &buffer{}
}

func (b *buffer) PushBack(msg *message) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.tail == nil {
		b.head = msg
		b.tail = msg
	} else {
		b.tail.next = msg
		b.tail = msg
	}
	b.size++

	return nil
}

func (b *buffer) Pop() *message {
	msg := b.head
	if msg == nil {
		return nil
	}
	b.head = msg.next
	if b.head == nil {
		b.tail = nil
	}
	b.size--
	return msg
}

func (b *buffer) Size() int {
	return b.size
}

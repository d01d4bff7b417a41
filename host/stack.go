package host

import "pkt.systems/tabstack/schema"

// Stack is an observable local navigation stack. The root screen of a tab is
// not on the stack; an empty stack means the tab shows its root.
type Stack struct {
	ids        []schema.LocalID
	next       schema.LocalID
	stateSaved bool
	subs       []subscription
	subSeq     int
}

type subscription struct {
	id int
	fn func([]schema.LocalID)
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Open pushes a freshly numbered entry and returns its id.
func (s *Stack) Open() schema.LocalID {
	s.next++
	s.Push(s.next)
	return s.next
}

// Push appends ids in order and notifies subscribers once.
func (s *Stack) Push(ids ...schema.LocalID) {
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		if id > s.next {
			s.next = id
		}
	}
	s.ids = append(s.ids, ids...)
	s.notify()
}

// Pop removes the top entry. It reports false when the stack is empty or
// the state is saved.
func (s *Stack) Pop() bool {
	if s.stateSaved || len(s.ids) == 0 {
		return false
	}
	s.ids = s.ids[:len(s.ids)-1]
	s.notify()
	return true
}

// PopN removes up to n entries with a single notification and returns how
// many were removed.
func (s *Stack) PopN(n int) int {
	if s.stateSaved || n <= 0 || len(s.ids) == 0 {
		return 0
	}
	if n > len(s.ids) {
		n = len(s.ids)
	}
	s.ids = s.ids[:len(s.ids)-n]
	s.notify()
	return n
}

// Clear pops to the root with a single notification.
func (s *Stack) Clear() int {
	return s.PopN(len(s.ids))
}

// IDs returns a copy of the stack contents, bottom first.
func (s *Stack) IDs() []schema.LocalID {
	return append([]schema.LocalID(nil), s.ids...)
}

// Top returns the id on top of the stack.
func (s *Stack) Top() (schema.LocalID, bool) {
	if len(s.ids) == 0 {
		return 0, false
	}
	return s.ids[len(s.ids)-1], true
}

func (s *Stack) Len() int {
	return len(s.ids)
}

// StateSaved reports whether mutations are currently refused.
func (s *Stack) StateSaved() bool {
	return s.stateSaved
}

// SetStateSaved freezes or unfreezes the stack.
func (s *Stack) SetStateSaved(saved bool) {
	s.stateSaved = saved
}

// Subscribe registers fn for change notifications. The returned func removes
// the subscription and is safe to call more than once.
func (s *Stack) Subscribe(fn func(ids []schema.LocalID)) func() {
	if fn == nil {
		return func() {}
	}
	s.subSeq++
	id := s.subSeq
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Stack) notify() {
	subs := append([]subscription(nil), s.subs...)
	for _, sub := range subs {
		sub.fn(s.IDs())
	}
}

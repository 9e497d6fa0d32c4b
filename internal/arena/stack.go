package arena

// handle is the set of integer id types kept on a free stack.
type handle interface {
	~int32
}

// freeStack holds unused ids. ids[top:] are free; pop takes ids[top] and
// push stores the id just below top, so released ids are reused first.
type freeStack[T handle] struct {
	ids []T
	top int
}

func newFreeStack[T handle](capacity int) freeStack[T] {
	s := freeStack[T]{ids: make([]T, capacity)}
	s.fill()
	return s
}

// fill restores every id 1..capacity in ascending order.
func (s *freeStack[T]) fill() {
	for i := range s.ids {
		s.ids[i] = T(i + 1)
	}
	s.top = 0
}

func (s *freeStack[T]) pop() (T, bool) {
	if s.top >= len(s.ids) {
		return 0, false
	}
	id := s.ids[s.top]
	s.top++
	return id, true
}

func (s *freeStack[T]) push(id T) {
	s.top--
	s.ids[s.top] = id
}

// inUse is the number of ids currently popped.
func (s *freeStack[T]) inUse() int {
	return s.top
}

// free returns a copy of the ids still on the stack, next to pop first.
func (s *freeStack[T]) free() []T {
	out := make([]T, len(s.ids)-s.top)
	copy(out, s.ids[s.top:])
	return out
}

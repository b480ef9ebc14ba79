package screener

import "github.com/wonny/aegis-screener/internal/contracts"

// subscriberBuffer is the number of events a slow subscriber may lag before drops
const subscriberBuffer = 64

// Subscribe returns a channel of progress events and its release func.
// Events are dropped for a subscriber whose buffer is full.
func (s *Service) Subscribe() (<-chan contracts.Progress, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan contracts.Progress, subscriberBuffer)
	s.subs[id] = ch

	var released bool
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if released {
			return
		}
		released = true
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Service) broadcast(p contracts.Progress) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- p:
		default:
		}
	}
}

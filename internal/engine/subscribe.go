package engine

import "binary-trader/internal/models"

type subscriber struct {
	ch      chan models.State
	dropped uint64
}

// Subscribe registers for state snapshots, published after every change.
// A subscriber that falls behind loses older snapshots, never the latest
// one. The channel is closed by cancel or when the engine closes.
func (e *Engine) Subscribe(buffer int) (<-chan models.State, func()) {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscriber{ch: make(chan models.State, buffer)}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	e.subSeq++
	id := e.subSeq
	e.subs[id] = sub
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if s, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel
}

// publishLocked delivers the current snapshot to every subscriber without
// blocking. When a buffer is full the oldest queued snapshot is discarded.
func (e *Engine) publishLocked() {
	if len(e.subs) == 0 {
		return
	}
	s := e.snapshot()
	for _, sub := range e.subs {
		select {
		case sub.ch <- s:
			continue
		default:
		}
		select {
		case <-sub.ch:
			sub.dropped++
		default:
		}
		select {
		case sub.ch <- s:
		default:
			sub.dropped++
		}
	}
}

func (e *Engine) closeSubscribersLocked() {
	for id, sub := range e.subs {
		if sub.dropped > 0 {
			e.logger.Debug().Uint64("dropped", sub.dropped).Msg("Subscriber missed state updates")
		}
		close(sub.ch)
		delete(e.subs, id)
	}
}

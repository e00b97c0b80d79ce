package events

import "github.com/dreamware/csync/internal/types"

// run is the bus's single cooperative dispatcher task. It owns subs
// exclusively; no other goroutine ever touches it, so it needs no lock.
func (b *Bus) run() {
	subs := make(map[string]map[chan types.Event]struct{})

	for {
		select {
		case req := <-b.subscribeCh:
			ch := make(chan types.Event, sinkBuffer)
			set, ok := subs[req.owner]
			if !ok {
				set = make(map[chan types.Event]struct{})
				subs[req.owner] = set
			}
			set[ch] = struct{}{}
			req.reply <- ch

		case req := <-b.unsubscribeCh:
			set, ok := subs[req.owner]
			if !ok {
				continue
			}
			if _, ok := set[req.sink]; ok {
				delete(set, req.sink)
				close(req.sink)
			}
			if len(set) == 0 {
				delete(subs, req.owner)
			}

		case event := <-b.publishCh:
			dispatch(subs, event)

		case reply := <-b.countCh:
			total := 0
			for _, set := range subs {
				total += len(set)
			}
			reply <- total
		}
	}
}

// dispatch partitions event's items by owner and delivers one sub-event per
// owner to that owner's sinks, preserving event_type. A sink with zero live
// receivers is simply skipped; it is evicted lazily the next time its
// owner's last subscriber unsubscribes.
func dispatch(subs map[string]map[chan types.Event]struct{}, event types.Event) {
	byOwner := make(map[string][]types.Metadata)
	for _, item := range event.Items {
		byOwner[item.Owner] = append(byOwner[item.Owner], item)
	}

	for owner, items := range byOwner {
		set, ok := subs[owner]
		if !ok || len(set) == 0 {
			continue
		}
		sub := types.Event{ID: event.ID, EventType: event.EventType, Items: items}
		for ch := range set {
			deliver(ch, sub)
		}
	}
}

// deliver sends sub to ch, dropping the oldest pending event to make room
// if ch's buffer is full. Best-effort: a receiver too slow to drain loses
// history, it never blocks the publisher.
func deliver(ch chan types.Event, sub types.Event) {
	select {
	case ch <- sub:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- sub:
	default:
	}
}

package quest

// EventType names an outbound notification from a System
type EventType string

const (
	EventQuestRegistered       EventType = "quest_registered"
	EventQuestCompleted        EventType = "quest_completed"
	EventQuestCanceled         EventType = "quest_canceled"
	EventAchievementRegistered EventType = "achievement_registered"
	EventAchievementCompleted  EventType = "achievement_completed"
)

// Event is delivered to subscribers after the System's lists are updated
type Event struct {
	Type  EventType
	Quest *Quest
}

// Listener receives a quest from a single event type
type Listener func(q *Quest)

type subscriber struct {
	id  uint64
	typ EventType // Empty receives every event
	fn  func(Event)
}

// Subscribe registers fn for every event and returns a function that removes it
func (s *System) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.addSubscriber("", fn)
}

// OnQuestRegistered subscribes to quest registration
func (s *System) OnQuestRegistered(fn Listener) {
	s.addSubscriber(EventQuestRegistered, func(e Event) { fn(e.Quest) })
}

// OnQuestCompleted subscribes to quest completion
func (s *System) OnQuestCompleted(fn Listener) {
	s.addSubscriber(EventQuestCompleted, func(e Event) { fn(e.Quest) })
}

// OnQuestCanceled subscribes to quest cancellation
func (s *System) OnQuestCanceled(fn Listener) {
	s.addSubscriber(EventQuestCanceled, func(e Event) { fn(e.Quest) })
}

// OnAchievementRegistered subscribes to achievement registration
func (s *System) OnAchievementRegistered(fn Listener) {
	s.addSubscriber(EventAchievementRegistered, func(e Event) { fn(e.Quest) })
}

// OnAchievementCompleted subscribes to achievement completion
func (s *System) OnAchievementCompleted(fn Listener) {
	s.addSubscriber(EventAchievementCompleted, func(e Event) { fn(e.Quest) })
}

func (s *System) addSubscriber(typ EventType, fn func(Event)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscriber{id: id, typ: typ, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// queue records an event to deliver once the current operation releases the lock.
// Must be called with s.mu held.
func (s *System) queue(typ EventType, q *Quest) {
	event := Event{Type: typ, Quest: q}
	s.later(func() { s.dispatch(event) })
}

// dispatch delivers an event. Must be called without s.mu held so
// subscribers can query the System.
func (s *System) dispatch(event Event) {
	s.subMu.RLock()
	subs := make([]subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.RUnlock()

	for _, sub := range subs {
		if sub.typ == "" || sub.typ == event.Type {
			sub.fn(event)
		}
	}
}

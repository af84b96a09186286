package util

import "entropy/local-app/src/pkg/model"

// CopyMessages returns an independent copy of msgs.
func CopyMessages(msgs []model.Message) []model.Message {
	if msgs == nil {
		return nil
	}
	return append(make([]model.Message, 0, len(msgs)), msgs...)
}

// CopyThread returns a deep copy of t.
func CopyThread(t model.Thread) model.Thread {
	t.Messages = CopyMessages(t.Messages)
	if t.Metadata != nil {
		md := make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			md[k] = v
		}
		t.Metadata = md
	}
	return t
}

// CopySticky returns a deep copy of s.
func CopySticky(s model.Sticky) model.Sticky {
	s.ChatHistory = CopyMessages(s.ChatHistory)
	if s.StackIndex != nil {
		idx := *s.StackIndex
		s.StackIndex = &idx
	}
	return s
}

// CopyMindmap returns a deep copy of m. A nil mindmap copies to nil.
func CopyMindmap(m *model.Mindmap) *model.Mindmap {
	if m == nil {
		return nil
	}
	c := *m
	if m.Threads != nil {
		c.Threads = make([]model.Thread, len(m.Threads))
		for i, t := range m.Threads {
			c.Threads[i] = CopyThread(t)
		}
	}
	if m.Stickies != nil {
		c.Stickies = make([]model.Sticky, len(m.Stickies))
		for i, s := range m.Stickies {
			c.Stickies[i] = CopySticky(s)
		}
	}
	return &c
}

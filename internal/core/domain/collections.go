package domain

// ChatHistoryLimit is the number of chat messages kept in the persisted document.
const ChatHistoryLimit = 50

// Collections is the full local data document of one user.
type Collections struct {
	Goals          []Goal         `json:"goals"`
	Tasks          []Task         `json:"tasks"`
	Reminders      []Reminder     `json:"reminders"`
	JournalEntries []JournalEntry `json:"journalEntries"`
	Habits         []Habit        `json:"habits"`
	Domains        []Domain       `json:"domains"`
	ChatMessages   []ChatMessage  `json:"chatMessages"`
	Insights       []Insight      `json:"insights"`
}

// Clone returns a copy whose slices can be mutated without touching c.
// Nested slices inside records are copied where the store mutates them.
func (c Collections) Clone() Collections {
	out := Collections{
		Goals:          append([]Goal(nil), c.Goals...),
		Tasks:          append([]Task(nil), c.Tasks...),
		Reminders:      append([]Reminder(nil), c.Reminders...),
		JournalEntries: append([]JournalEntry(nil), c.JournalEntries...),
		Habits:         make([]Habit, len(c.Habits)),
		Domains:        make([]Domain, len(c.Domains)),
		ChatMessages:   append([]ChatMessage(nil), c.ChatMessages...),
		Insights:       append([]Insight(nil), c.Insights...),
	}
	for i, h := range c.Habits {
		h.CompletedDates = append([]string(nil), h.CompletedDates...)
		out.Habits[i] = h
	}
	for i, d := range c.Domains {
		d.Items = append([]DomainItem(nil), d.Items...)
		out.Domains[i] = d
	}
	for i, g := range out.Goals {
		out.Goals[i].Milestones = append([]Milestone(nil), g.Milestones...)
	}
	return out
}

// Persistable trims the document to what is written to local storage: the
// last ChatHistoryLimit chat messages and insights that were not dismissed.
func (c Collections) Persistable() Collections {
	out := c
	if n := len(c.ChatMessages); n > ChatHistoryLimit {
		out.ChatMessages = c.ChatMessages[n-ChatHistoryLimit:]
	}
	out.Insights = nil
	for _, in := range c.Insights {
		if !in.IsDismissed {
			out.Insights = append(out.Insights, in)
		}
	}
	return out
}

// DomainItems flattens every domain grouping into one list.
func (c Collections) DomainItems() []DomainItem {
	var items []DomainItem
	for _, d := range c.Domains {
		items = append(items, d.Items...)
	}
	return items
}

package storage

import "time"

// Card is the structured record kept alongside each generated image.
type Card struct {
	ID          string
	Filename    string
	Name        string
	Actor       string
	Action      string
	Achievement string
	Criteria    string
	DoneWhen    string
	CreatedAt   time.Time
}

// Entry is one image file in the card directory.
type Entry struct {
	Filename  string
	ID        string
	CreatedAt time.Time
	ModTime   time.Time
	Size      int64
	// Parsed reports whether ID and CreatedAt came from the filename;
	// otherwise ID is the bare stem and CreatedAt the modification time.
	Parsed bool
}

// Stats holds aggregate statistics about the card index.
type Stats struct {
	TotalCards int64
	OldestCard time.Time
	NewestCard time.Time
	Counters   []CounterValue
}

// CounterValue pairs a counter name with its current value.
type CounterValue struct {
	Name  string
	Value int64
}

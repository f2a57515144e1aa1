package event

import (
	"testing"
	"time"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 5, day, hour, minute, 0, 0, time.UTC)
}

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{
			name:  "valid event",
			event: Event{Subject: "Standup", Start: at(5, 9, 0), End: at(5, 9, 30), Status: StatusPublic},
		},
		{
			name:    "empty subject",
			event:   Event{Subject: "", Start: at(5, 9, 0), End: at(5, 9, 30)},
			wantErr: true,
		},
		{
			name:    "end equals start",
			event:   Event{Subject: "Standup", Start: at(5, 9, 0), End: at(5, 9, 0)},
			wantErr: true,
		},
		{
			name:    "end before start",
			event:   Event{Subject: "Standup", Start: at(5, 9, 30), End: at(5, 9, 0)},
			wantErr: true,
		},
		{
			name:    "unknown status",
			event:   Event{Subject: "Standup", Start: at(5, 9, 0), End: at(5, 9, 30), Status: "SECRET"},
			wantErr: true,
		},
		{
			name:  "empty status allowed before normalization",
			event: Event{Subject: "Standup", Start: at(5, 9, 0), End: at(5, 9, 30)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEvent_IsAllDay(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  bool
	}{
		{
			name:  "exact 08:00-17:00 window",
			event: Event{Subject: "Offsite", Start: at(5, 8, 0), End: at(5, 17, 0)},
			want:  true,
		},
		{
			name:  "same hours different days",
			event: Event{Subject: "Offsite", Start: at(5, 8, 0), End: at(6, 17, 0)},
			want:  false,
		},
		{
			name:  "other times same day",
			event: Event{Subject: "Offsite", Start: at(5, 9, 0), End: at(5, 17, 0)},
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.IsAllDay(); got != tt.want {
				t.Errorf("IsAllDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvent_Covers(t *testing.T) {
	e := Event{Subject: "Meeting", Start: at(5, 10, 0), End: at(5, 11, 0)}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "at start", at: at(5, 10, 0), want: true},
		{name: "inside", at: at(5, 10, 59), want: true},
		{name: "at end is not busy", at: at(5, 11, 0), want: false},
		{name: "before", at: at(5, 9, 59), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Covers(tt.at); got != tt.want {
				t.Errorf("Covers(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestEvent_Overlaps(t *testing.T) {
	e := Event{Subject: "Meeting", Start: at(5, 10, 0), End: at(5, 11, 0)}

	tests := []struct {
		name     string
		from, to time.Time
		want     bool
	}{
		{name: "fully inside window", from: at(5, 0, 0), to: at(6, 0, 0), want: true},
		{name: "window ends at event start", from: at(5, 9, 0), to: at(5, 10, 0), want: false},
		{name: "window starts at event end", from: at(5, 11, 0), to: at(5, 12, 0), want: false},
		{name: "partial overlap", from: at(5, 10, 30), to: at(5, 12, 0), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Overlaps(tt.from, tt.to); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestEvent_Key(t *testing.T) {
	a := Event{Subject: "Meeting", Start: at(5, 10, 0), End: at(5, 11, 0), Description: "one"}
	b := Event{Subject: "Meeting", Start: at(5, 10, 0), End: at(5, 11, 0), Description: "two"}
	if a.Key() != b.Key() {
		t.Errorf("events differing only in description should share a key")
	}
	c := Event{Subject: "Meeting", Start: at(5, 10, 0), End: at(5, 12, 0)}
	if a.Key() == c.Key() {
		t.Errorf("events with different end times must not share a key")
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus("private"); err != nil || s != StatusPrivate {
		t.Errorf("ParseStatus(private) = %v, %v", s, err)
	}
	if s, err := ParseStatus("PUBLIC"); err != nil || s != StatusPublic {
		t.Errorf("ParseStatus(PUBLIC) = %v, %v", s, err)
	}
	if _, err := ParseStatus("hidden"); err == nil {
		t.Errorf("ParseStatus(hidden) should fail")
	}
}

func TestEvent_Normalized(t *testing.T) {
	e := Event{Subject: "Meeting", Start: at(5, 10, 0), End: at(5, 11, 0)}
	if got := e.Normalized().Status; got != StatusPublic {
		t.Errorf("Normalized() status = %v, want %v", got, StatusPublic)
	}
	p := Event{Subject: "Meeting", Start: at(5, 10, 0), End: at(5, 11, 0), Status: StatusPrivate}
	if got := p.Normalized().Status; got != StatusPrivate {
		t.Errorf("Normalized() must not override an explicit status")
	}
}

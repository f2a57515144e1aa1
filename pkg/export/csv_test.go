package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almanak/almanak/pkg/event"
)

func TestCSV(t *testing.T) {
	events := []event.Event{
		{
			Subject:     "Design review",
			Start:       time.Date(2025, 5, 5, 14, 0, 0, 0, time.UTC),
			End:         time.Date(2025, 5, 5, 15, 30, 0, 0, time.UTC),
			Description: "v2 mockups, final pass",
			Location:    "Room 4",
			Status:      event.StatusPrivate,
		},
		{
			Subject: "Offsite",
			Start:   time.Date(2025, 5, 6, 8, 0, 0, 0, time.UTC),
			End:     time.Date(2025, 5, 6, 17, 0, 0, 0, time.UTC),
			Status:  event.StatusPublic,
		},
	}

	out, err := CSV(events)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Subject,Start Date,Start Time,End Date,End Time,All Day Event,Description,Location,Private", lines[0])
	// The comma in the description forces quoting.
	assert.Equal(t, `Design review,05/05/2025,02:00 PM,05/05/2025,03:30 PM,False,"v2 mockups, final pass",Room 4,True`, lines[1])
	assert.Equal(t, "Offsite,05/06/2025,08:00 AM,05/06/2025,05:00 PM,True,,,False", lines[2])
}

func TestCSV_EmptyCalendar(t *testing.T) {
	out, err := CSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "Subject,Start Date,Start Time,End Date,End Time,All Day Event,Description,Location,Private\n", out)
}

package tools

import "encoding/json"

var (
	availabilities = []string{"busy", "free", "tentative", "unavailable"}
	spans          = []string{"this", "future"}
)

const defaultSpan = "this"

var calendarTools = []Tool{
	{
		Name:        "calendar.list_sources",
		Description: "List calendar sources/accounts.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				IncludeEmpty bool `json:"include_empty"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			a := argv{"calendar", "sources"}
			a.set("--include-empty", args.IncludeEmpty)
			return a, nil
		},
	},
	{
		Name:        "calendar.list_calendars",
		Description: "List event calendars.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				SourceID      []string `json:"source_id"`
				IncludeHidden bool     `json:"include_hidden"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			a := argv{"calendar", "calendars"}
			a.each("--source-id", args.SourceID)
			a.set("--include-hidden", args.IncludeHidden)
			return a, nil
		},
	},
	{
		Name:        "calendar.list_events",
		Description: "List events within a time range.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				Start          string   `json:"start"`
				End            string   `json:"end"`
				CalendarID     []string `json:"calendar_id"`
				SourceID       []string `json:"source_id"`
				IncludeDetails bool     `json:"include_details"`
				Limit          *int     `json:"limit"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			if err := firstError(
				required("start", args.Start),
				required("end", args.End),
				positive("limit", args.Limit),
			); err != nil {
				return nil, err
			}

			a := argv{"calendar", "events", "--start", args.Start, "--end", args.End}
			a.each("--calendar-id", args.CalendarID)
			a.each("--source-id", args.SourceID)
			a.set("--include-details", args.IncludeDetails)
			a.num("--limit", args.Limit, 0)
			return a, nil
		},
	},
	{
		Name:        "calendar.create_event",
		Description: "Create a calendar event.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				CalendarID   string  `json:"calendar_id"`
				Title        string  `json:"title"`
				Start        string  `json:"start"`
				End          string  `json:"end"`
				AllDay       bool    `json:"all_day"`
				Location     *string `json:"location"`
				Notes        *string `json:"notes"`
				URL          *string `json:"url"`
				Availability *string `json:"availability"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			if err := firstError(
				required("calendar_id", args.CalendarID),
				required("title", args.Title),
				required("start", args.Start),
				required("end", args.End),
				oneOf("availability", args.Availability, availabilities...),
			); err != nil {
				return nil, err
			}

			a := argv{
				"calendar", "create-event",
				"--calendar-id", args.CalendarID,
				"--title", args.Title,
				"--start", args.Start,
				"--end", args.End,
			}
			a.set("--all-day", args.AllDay)
			a.str("--location", args.Location)
			a.str("--notes", args.Notes)
			a.str("--url", args.URL)
			a.str("--availability", args.Availability)
			return a, nil
		},
	},
	{
		Name:        "calendar.update_event",
		Description: "Update an existing calendar event.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				EventID           string  `json:"event_id"`
				Span              *string `json:"span"`
				CalendarID        *string `json:"calendar_id"`
				Title             *string `json:"title"`
				Start             *string `json:"start"`
				End               *string `json:"end"`
				IsAllDay          *bool   `json:"is_all_day"`
				Location          *string `json:"location"`
				ClearLocation     bool    `json:"clear_location"`
				Notes             *string `json:"notes"`
				ClearNotes        bool    `json:"clear_notes"`
				URL               *string `json:"url"`
				ClearURL          bool    `json:"clear_url"`
				Availability      *string `json:"availability"`
				ClearAvailability bool    `json:"clear_availability"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			if err := firstError(
				required("event_id", args.EventID),
				oneOf("span", args.Span, spans...),
				oneOf("availability", args.Availability, availabilities...),
			); err != nil {
				return nil, err
			}

			a := argv{"calendar", "update-event", "--event-id", args.EventID}
			a.choice("--span", args.Span, defaultSpan)
			a.str("--calendar-id", args.CalendarID)
			a.str("--title", args.Title)
			a.str("--start", args.Start)
			a.str("--end", args.End)
			a.tri("--is-all-day", args.IsAllDay)
			a.str("--location", args.Location)
			a.set("--clear-location", args.ClearLocation)
			a.str("--notes", args.Notes)
			a.set("--clear-notes", args.ClearNotes)
			a.str("--url", args.URL)
			a.set("--clear-url", args.ClearURL)
			a.str("--availability", args.Availability)
			a.set("--clear-availability", args.ClearAvailability)
			return a, nil
		},
	},
	{
		Name:        "calendar.delete_event",
		Description: "Delete a calendar event.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				EventID string  `json:"event_id"`
				Span    *string `json:"span"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			if err := firstError(
				required("event_id", args.EventID),
				oneOf("span", args.Span, spans...),
			); err != nil {
				return nil, err
			}

			a := argv{"calendar", "delete-event", "--event-id", args.EventID}
			a.choice("--span", args.Span, defaultSpan)
			return a, nil
		},
	},
}

package tools

import "encoding/json"

var statuses = []string{"open", "completed", "all"}

const (
	defaultStatus        = "open"
	defaultReminderLimit = 200
)

var remindersTools = []Tool{
	{
		Name:        "reminders.list_sources",
		Description: "List reminder sources/accounts.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				IncludeEmpty bool `json:"include_empty"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			a := argv{"reminders", "sources"}
			a.set("--include-empty", args.IncludeEmpty)
			return a, nil
		},
	},
	{
		Name:        "reminders.list_lists",
		Description: "List reminder lists.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				SourceID      []string `json:"source_id"`
				IncludeHidden bool     `json:"include_hidden"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			a := argv{"reminders", "lists"}
			a.each("--source-id", args.SourceID)
			a.set("--include-hidden", args.IncludeHidden)
			return a, nil
		},
	},
	{
		Name:        "reminders.list_reminders",
		Description: "List reminders by filters.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				Start    *string  `json:"start"`
				End      *string  `json:"end"`
				DueStart *string  `json:"due_start"`
				DueEnd   *string  `json:"due_end"`
				ListID   []string `json:"list_id"`
				SourceID []string `json:"source_id"`
				Status   *string  `json:"status"`
				Limit    *int     `json:"limit"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			if err := firstError(
				oneOf("status", args.Status, statuses...),
				positive("limit", args.Limit),
			); err != nil {
				return nil, err
			}

			a := argv{"reminders", "reminders"}
			a.str("--start", args.Start)
			a.str("--end", args.End)
			a.str("--due-start", args.DueStart)
			a.str("--due-end", args.DueEnd)
			a.each("--list-id", args.ListID)
			a.each("--source-id", args.SourceID)
			a.choice("--status", args.Status, defaultStatus)
			a.num("--limit", args.Limit, defaultReminderLimit)
			return a, nil
		},
	},
	{
		Name:        "reminders.create_reminder",
		Description: "Create a reminder.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				ListID   string  `json:"list_id"`
				Title    string  `json:"title"`
				Start    *string `json:"start"`
				Due      *string `json:"due"`
				Notes    *string `json:"notes"`
				URL      *string `json:"url"`
				Priority *int    `json:"priority"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			if err := firstError(
				required("list_id", args.ListID),
				required("title", args.Title),
				between("priority", args.Priority, 0, 9),
			); err != nil {
				return nil, err
			}

			a := argv{"reminders", "create-reminder", "--list-id", args.ListID, "--title", args.Title}
			a.str("--start", args.Start)
			a.str("--due", args.Due)
			a.str("--notes", args.Notes)
			a.str("--url", args.URL)
			a.num("--priority", args.Priority, 0)
			return a, nil
		},
	},
	{
		Name:        "reminders.update_reminder",
		Description: "Update an existing reminder.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				ReminderID    string  `json:"reminder_id"`
				ListID        *string `json:"list_id"`
				Title         *string `json:"title"`
				Start         *string `json:"start"`
				ClearStart    bool    `json:"clear_start"`
				Due           *string `json:"due"`
				ClearDue      bool    `json:"clear_due"`
				Notes         *string `json:"notes"`
				ClearNotes    bool    `json:"clear_notes"`
				URL           *string `json:"url"`
				ClearURL      bool    `json:"clear_url"`
				Priority      *int    `json:"priority"`
				ClearPriority bool    `json:"clear_priority"`
				Completed     *bool   `json:"completed"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			if err := firstError(
				required("reminder_id", args.ReminderID),
				between("priority", args.Priority, 0, 9),
			); err != nil {
				return nil, err
			}

			a := argv{"reminders", "update-reminder", "--reminder-id", args.ReminderID}
			a.str("--list-id", args.ListID)
			a.str("--title", args.Title)
			a.str("--start", args.Start)
			a.set("--clear-start", args.ClearStart)
			a.str("--due", args.Due)
			a.set("--clear-due", args.ClearDue)
			a.str("--notes", args.Notes)
			a.set("--clear-notes", args.ClearNotes)
			a.str("--url", args.URL)
			a.set("--clear-url", args.ClearURL)
			// An explicit priority is always sent, even 0
			a.num("--priority", args.Priority, -1)
			a.set("--clear-priority", args.ClearPriority)
			a.tri("--completed", args.Completed)
			return a, nil
		},
	},
	{
		Name:        "reminders.delete_reminder",
		Description: "Delete a reminder.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				ReminderID string `json:"reminder_id"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			if err := required("reminder_id", args.ReminderID); err != nil {
				return nil, err
			}

			return argv{"reminders", "delete-reminder", "--reminder-id", args.ReminderID}, nil
		},
	},
}

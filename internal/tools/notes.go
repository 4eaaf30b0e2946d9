package tools

import "encoding/json"

const (
	defaultNoteLimit     = 200
	defaultExcerptMaxLen = 200
)

var notesTools = []Tool{
	{
		Name:        "notes.list_accounts",
		Description: "List Notes accounts.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct{}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			return argv{"notes", "accounts"}, nil
		},
	},
	{
		Name:        "notes.list_folders",
		Description: "List Notes folders.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				AccountID              []string `json:"account_id"`
				ParentFolderID         *string  `json:"parent_folder_id"`
				Recursive              bool     `json:"recursive"`
				IncludeShared          bool     `json:"include_shared"`
				IncludeRecentlyDeleted bool     `json:"include_recently_deleted"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			a := argv{"notes", "folders"}
			a.each("--account-id", args.AccountID)
			a.str("--parent-folder-id", args.ParentFolderID)
			a.set("--recursive", args.Recursive)
			a.set("--include-shared", args.IncludeShared)
			a.set("--include-recently-deleted", args.IncludeRecentlyDeleted)
			return a, nil
		},
	},
	{
		Name:        "notes.list_notes",
		Description: "List notes (metadata-first).",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				AccountID               []string `json:"account_id"`
				FolderID                []string `json:"folder_id"`
				Query                   *string  `json:"query"`
				IncludePlaintextExcerpt bool     `json:"include_plaintext_excerpt"`
				PlaintextExcerptMaxLen  *int     `json:"plaintext_excerpt_max_len"`
				IncludeShared           bool     `json:"include_shared"`
				IncludeRecentlyDeleted  bool     `json:"include_recently_deleted"`
				Limit                   *int     `json:"limit"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			if err := firstError(
				positive("plaintext_excerpt_max_len", args.PlaintextExcerptMaxLen),
				positive("limit", args.Limit),
			); err != nil {
				return nil, err
			}

			a := argv{"notes", "notes"}
			a.each("--account-id", args.AccountID)
			a.each("--folder-id", args.FolderID)
			a.str("--query", args.Query)
			a.set("--include-plaintext-excerpt", args.IncludePlaintextExcerpt)
			a.num("--plaintext-excerpt-max-len", args.PlaintextExcerptMaxLen, defaultExcerptMaxLen)
			a.set("--include-shared", args.IncludeShared)
			a.set("--include-recently-deleted", args.IncludeRecentlyDeleted)
			a.num("--limit", args.Limit, defaultNoteLimit)
			return a, nil
		},
	},
	{
		Name:        "notes.get_note",
		Description: "Fetch a note with optional content and attachments.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				NoteID             string `json:"note_id"`
				IncludePlaintext   *bool  `json:"include_plaintext"`
				IncludeBodyHTML    bool   `json:"include_body_html"`
				IncludeAttachments *bool  `json:"include_attachments"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			if err := required("note_id", args.NoteID); err != nil {
				return nil, err
			}

			a := argv{"notes", "get-note", "--note-id", args.NoteID}
			a.set("--no-include-plaintext", args.IncludePlaintext != nil && !*args.IncludePlaintext)
			a.set("--include-body-html", args.IncludeBodyHTML)
			a.set("--no-include-attachments", args.IncludeAttachments != nil && !*args.IncludeAttachments)
			return a, nil
		},
	},
	{
		Name:        "notes.create_note",
		Description: "Create a new note.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				FolderID   *string  `json:"folder_id"`
				Title      *string  `json:"title"`
				Plaintext  *string  `json:"plaintext"`
				Markdown   *string  `json:"markdown"`
				AttachFile []string `json:"attach_file"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			a := argv{"notes", "create-note"}
			a.str("--folder-id", args.FolderID)
			a.str("--title", args.Title)
			a.str("--plaintext", args.Plaintext)
			a.str("--markdown", args.Markdown)
			a.each("--attach-file", args.AttachFile)
			return a, nil
		},
	},
	{
		Name:        "notes.update_note",
		Description: "Update an existing note.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				NoteID           string   `json:"note_id"`
				Title            *string  `json:"title"`
				AllowDestructive bool     `json:"allow_destructive"`
				SetPlaintext     *string  `json:"set_plaintext"`
				SetMarkdown      *string  `json:"set_markdown"`
				AppendPlaintext  *string  `json:"append_plaintext"`
				AppendMarkdown   *string  `json:"append_markdown"`
				AttachFile       []string `json:"attach_file"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			if err := required("note_id", args.NoteID); err != nil {
				return nil, err
			}

			a := argv{"notes", "update-note", "--note-id", args.NoteID}
			a.str("--title", args.Title)
			a.set("--allow-destructive", args.AllowDestructive)
			a.str("--set-plaintext", args.SetPlaintext)
			a.str("--set-markdown", args.SetMarkdown)
			a.str("--append-plaintext", args.AppendPlaintext)
			a.str("--append-markdown", args.AppendMarkdown)
			a.each("--attach-file", args.AttachFile)
			return a, nil
		},
	},
	{
		Name:        "notes.delete_note",
		Description: "Delete a note.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				NoteID string `json:"note_id"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			if err := required("note_id", args.NoteID); err != nil {
				return nil, err
			}

			return argv{"notes", "delete-note", "--note-id", args.NoteID}, nil
		},
	},
	{
		Name:        "notes.list_attachments",
		Description: "List attachments for a note.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				NoteID        string `json:"note_id"`
				IncludeShared bool   `json:"include_shared"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			if err := required("note_id", args.NoteID); err != nil {
				return nil, err
			}

			a := argv{"notes", "attachments", "--note-id", args.NoteID}
			a.set("--include-shared", args.IncludeShared)
			return a, nil
		},
	},
	{
		Name:        "notes.save_attachment",
		Description: "Export an attachment to a file path.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				AttachmentID string `json:"attachment_id"`
				OutputPath   string `json:"output_path"`
				Overwrite    bool   `json:"overwrite"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			if err := firstError(
				required("attachment_id", args.AttachmentID),
				required("output_path", args.OutputPath),
			); err != nil {
				return nil, err
			}

			a := argv{"notes", "save-attachment", "--attachment-id", args.AttachmentID, "--output-path", args.OutputPath}
			a.set("--overwrite", args.Overwrite)
			return a, nil
		},
	},
	{
		Name:        "notes.add_attachment",
		Description: "Add attachment(s) to a note from local file paths.",
		Argv: func(raw json.RawMessage) ([]string, error) {
			var args struct {
				NoteID     string   `json:"note_id"`
				AttachFile []string `json:"attach_file"`
			}
			if err := decode(raw, &args); err != nil {
				return nil, err
			}

			if err := required("note_id", args.NoteID); err != nil {
				return nil, err
			}

			if len(args.AttachFile) == 0 {
				return nil, invalid("attach_file requires at least one path")
			}

			a := argv{"notes", "add-attachment", "--note-id", args.NoteID}
			a.each("--attach-file", args.AttachFile)
			return a, nil
		},
	},
}

package prefs

import (
	"context"
	"fmt"
	"time"
)

// Setting keys.
const (
	KeyStates               = "states"
	KeyNewNoteState         = "new_note_state"
	KeyDisplayedBookDetails = "displayed_book_details"
)

// State keys.
const (
	KeyLastSuccessfulSyncTime     = "last_successful_sync_time"
	KeyLastUsedVersionCode        = "last_used_version_code"
	KeyReminderLastRunScheduled   = "reminder_last_run_scheduled"
	KeyReminderLastRunDeadline    = "reminder_last_run_deadline"
	KeyReminderLastRunEvent       = "reminder_last_run_event"
	KeyNotesClipboard             = "notes_clipboard"
	KeyRefileLastLocation         = "refile_last_location"
	KeyDropboxCredential          = "dropbox_credential"
	KeyGettingStartedNotebookSeen = "getting_started_notebook_loaded"
)

// ReminderKind selects which reminder service a last-run time belongs to.
type ReminderKind string

const (
	ReminderScheduled ReminderKind = "scheduled"
	ReminderDeadline  ReminderKind = "deadline"
	ReminderEvent     ReminderKind = "event"
)

func (k ReminderKind) key() (string, error) {
	switch k {
	case ReminderScheduled:
		return KeyReminderLastRunScheduled, nil
	case ReminderDeadline:
		return KeyReminderLastRunDeadline, nil
	case ReminderEvent:
		return KeyReminderLastRunEvent, nil
	}
	return "", fmt.Errorf("unknown reminder kind %q", string(k))
}

// NewNoteState is the state given to newly created notes.
func (p *Preferences) NewNoteState(ctx context.Context) string {
	return p.Settings().String(ctx, KeyNewNoteState)
}

// DisplayedBookDetails lists the book details shown in the book list.
func (p *Preferences) DisplayedBookDetails(ctx context.Context) []string {
	return p.Settings().StringSet(ctx, KeyDisplayedBookDetails)
}

// LastSuccessfulSyncTime returns the zero Time if no sync has completed.
func (p *Preferences) LastSuccessfulSyncTime(ctx context.Context) time.Time {
	return fromMillis(p.State().GetLong(ctx, KeyLastSuccessfulSyncTime, 0))
}

// SetLastSuccessfulSyncTime records t with millisecond precision.
func (p *Preferences) SetLastSuccessfulSyncTime(ctx context.Context, t time.Time) error {
	return p.State().PutLong(ctx, KeyLastSuccessfulSyncTime, t.UnixMilli())
}

// ReminderLastRun returns the zero Time if the service has never run.
func (p *Preferences) ReminderLastRun(ctx context.Context, kind ReminderKind) (time.Time, error) {
	key, err := kind.key()
	if err != nil {
		return time.Time{}, err
	}
	return fromMillis(p.State().GetLong(ctx, key, 0)), nil
}

// SetReminderLastRun records when the reminder service last ran for kind.
func (p *Preferences) SetReminderLastRun(ctx context.Context, kind ReminderKind, t time.Time) error {
	key, err := kind.key()
	if err != nil {
		return err
	}
	return p.State().PutLong(ctx, key, t.UnixMilli())
}

// LastUsedVersionCode is the app version code seen on the previous start.
func (p *Preferences) LastUsedVersionCode(ctx context.Context) int32 {
	return p.State().GetInt(ctx, KeyLastUsedVersionCode, 0)
}

// SetLastUsedVersionCode stores the current version code.
func (p *Preferences) SetLastUsedVersionCode(ctx context.Context, code int32) error {
	return p.State().PutInt(ctx, KeyLastUsedVersionCode, code)
}

// NotesClipboard returns the serialized notes last cut or copied.
func (p *Preferences) NotesClipboard(ctx context.Context) string {
	return p.State().GetString(ctx, KeyNotesClipboard, "")
}

// SetNotesClipboard replaces the notes clipboard.
func (p *Preferences) SetNotesClipboard(ctx context.Context, data string) error {
	return p.State().PutString(ctx, KeyNotesClipboard, data)
}

// RefileLastLocation is the target chosen by the last refile.
func (p *Preferences) RefileLastLocation(ctx context.Context) string {
	return p.State().GetString(ctx, KeyRefileLastLocation, "")
}

// SetRefileLastLocation stores the last refile target.
func (p *Preferences) SetRefileLastLocation(ctx context.Context, location string) error {
	return p.State().PutString(ctx, KeyRefileLastLocation, location)
}

// DropboxCredential returns the stored credential, or "".
func (p *Preferences) DropboxCredential(ctx context.Context) string {
	return p.State().GetString(ctx, KeyDropboxCredential, "")
}

// SetDropboxCredential stores the credential. An empty credential removes
// the key.
func (p *Preferences) SetDropboxCredential(ctx context.Context, credential string) error {
	if credential == "" {
		return p.State().Remove(ctx, KeyDropboxCredential)
	}
	return p.State().PutString(ctx, KeyDropboxCredential, credential)
}

// GettingStartedNotebookLoaded reports whether the sample notebook was created.
func (p *Preferences) GettingStartedNotebookLoaded(ctx context.Context) bool {
	return p.State().GetBool(ctx, KeyGettingStartedNotebookSeen, false)
}

// SetGettingStartedNotebookLoaded stores the sample notebook flag.
func (p *Preferences) SetGettingStartedNotebookLoaded(ctx context.Context, loaded bool) error {
	return p.State().PutBool(ctx, KeyGettingStartedNotebookSeen, loaded)
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

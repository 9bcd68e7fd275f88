package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/yotoshare/internal/shared"
)

// ExportRecord is a card file written to disk.
type ExportRecord struct {
	id        string
	sequence  int
	cardID    string
	title     string
	theme     string
	format    string
	path      string
	createdAt time.Time
}

// NewExportRecord creates an unsaved record. The repository assigns the ID and sequence.
func NewExportRecord(cardID, title, theme, format, path string) *ExportRecord {
	return &ExportRecord{
		cardID:    cardID,
		title:     title,
		theme:     theme,
		format:    format,
		path:      path,
		createdAt: time.Now().UTC(),
	}
}

// RestoreExportRecord rebuilds a record read from storage.
func RestoreExportRecord(id string, sequence int, cardID, title, theme, format, path string, createdAt time.Time) *ExportRecord {
	return &ExportRecord{
		id:        id,
		sequence:  sequence,
		cardID:    cardID,
		title:     title,
		theme:     theme,
		format:    format,
		path:      path,
		createdAt: createdAt,
	}
}

func (e *ExportRecord) ID() string           { return e.id }
func (e *ExportRecord) Sequence() int        { return e.sequence }
func (e *ExportRecord) CardID() string       { return e.cardID }
func (e *ExportRecord) Title() string        { return e.title }
func (e *ExportRecord) Theme() string        { return e.theme }
func (e *ExportRecord) Format() string       { return e.format }
func (e *ExportRecord) Path() string         { return e.path }
func (e *ExportRecord) CreatedAt() time.Time { return e.createdAt }

func (e *ExportRecord) SetID(id string)          { e.id = id }
func (e *ExportRecord) SetSequence(sequence int) { e.sequence = sequence }

// Validate checks the fields required to locate the export again.
func (e *ExportRecord) Validate() error {
	switch {
	case e.cardID == "":
		return fmt.Errorf("%w: card id is required", shared.ErrInvalidInput)
	case e.format == "":
		return fmt.Errorf("%w: format is required", shared.ErrInvalidInput)
	case e.path == "":
		return fmt.Errorf("%w: path is required", shared.ErrInvalidInput)
	}
	return nil
}

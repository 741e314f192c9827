package models

import "time"

// Author identifies who produced an audit entry.
type Author string

// Author constants.
const (
	AuthorSystem     Author = "System"
	AuthorController Author = "Controller"
	AuthorAI         Author = "AI"
)

// Valid reports whether a is a known author.
func (a Author) Valid() bool {
	switch a {
	case AuthorSystem, AuthorController, AuthorAI:
		return true
	}
	return false
}

// AuditLogEntry is one line of the append-only, newest-first audit trail.
// Timestamp is Unix milliseconds.
type AuditLogEntry struct {
	ID        string `json:"id" yaml:"id"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
	Message   string `json:"message" yaml:"message"`
	Author    Author `json:"author" yaml:"author"`
}

// AuditRecord is the archived form of an AuditLogEntry.
type AuditRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	EntryID   string    `gorm:"size:64;uniqueIndex"`
	Author    string    `gorm:"size:16;index"`
	Message   string    `gorm:"type:text"`
	LoggedAt  time.Time `gorm:"index"`
	CreatedAt time.Time
}

// Entry converts the archived row back to an AuditLogEntry.
func (r AuditRecord) Entry() AuditLogEntry {
	return AuditLogEntry{
		ID:        r.EntryID,
		Timestamp: r.LoggedAt.UnixMilli(),
		Message:   r.Message,
		Author:    Author(r.Author),
	}
}

package models

import (
	"github.com/google/uuid"
)

// Limits holds the configurable caps persisted alongside the snapshot.
type Limits struct {
	FreeBillLimit int `json:"freeBillLimit"`
}

// AppState is the aggregate root: the whole persisted application state,
// loaded and saved as one snapshot. Exactly one instance exists per process;
// every mutation is read-modify-write against it.
type AppState struct {
	Users             []User     `json:"users"`
	Bills             []Bill     `json:"bills"`
	Logs              []AuditLog `json:"logs"`
	SystemMaintenance bool       `json:"systemMaintenance"`
	Limits            Limits     `json:"limits"`

	// Revision counts persisted saves. SaveRevision uses it as an optimistic
	// concurrency check; plain Save ignores it.
	Revision int64 `json:"revision"`
}

// UserByID returns a pointer into Users, or nil when absent.
func (s *AppState) UserByID(id uuid.UUID) *User {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return &s.Users[i]
		}
	}
	return nil
}

// UserByEmail returns a pointer into Users matching the exact, case-sensitive
// stored email, or nil when absent.
func (s *AppState) UserByEmail(email string) *User {
	for i := range s.Users {
		if s.Users[i].Email == email {
			return &s.Users[i]
		}
	}
	return nil
}

// BillByID returns a pointer into Bills, or nil when absent.
func (s *AppState) BillByID(id uuid.UUID) *Bill {
	for i := range s.Bills {
		if s.Bills[i].ID == id {
			return &s.Bills[i]
		}
	}
	return nil
}

// BillsByUser returns the user's bills in insertion order.
func (s *AppState) BillsByUser(userID uuid.UUID) []Bill {
	var out []Bill
	for _, bill := range s.Bills {
		if bill.UserID == userID {
			out = append(out, bill)
		}
	}
	return out
}

// RemoveBill deletes the bill with the given id, preserving the order of the
// remaining bills. It reports whether anything was removed.
func (s *AppState) RemoveBill(id uuid.UUID) bool {
	for i := range s.Bills {
		if s.Bills[i].ID == id {
			s.Bills = append(s.Bills[:i], s.Bills[i+1:]...)
			return true
		}
	}
	return false
}

// AppendLog attaches an audit entry to the end of the log.
func (s *AppState) AppendLog(entry AuditLog) {
	s.Logs = append(s.Logs, entry)
}

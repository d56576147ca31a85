// Package core provides fundamental utilities shared by the showcase packages.
// This file contains option functions for customizing activity log entries.
package core

import (
	"maps"

	"github.com/tfkr-ae/showcase/domain"
)

// EntryWithData is an option to attach action-specific data to an activity entry.
func EntryWithData(data map[string]any) func(entry *domain.ActivityEntry) error {
	return func(entry *domain.ActivityEntry) error {
		if data != nil {
			entry.Data = maps.Clone(data)
		}
		return nil
	}
}

// EntryWithSession is an option to attach a session metadata snapshot to an activity entry.
func EntryWithSession(session map[string]any) func(entry *domain.ActivityEntry) error {
	return func(entry *domain.ActivityEntry) error {
		if session != nil {
			entry.SessionData = maps.Clone(session)
		}
		return nil
	}
}

// EntryWithIdentity is an option to record who performed the action.
func EntryWithIdentity(identity domain.Identity) func(entry *domain.ActivityEntry) error {
	return func(entry *domain.ActivityEntry) error {
		entry.UserStamp = identity.Stamp
		entry.Nickname = identity.Nickname
		return nil
	}
}

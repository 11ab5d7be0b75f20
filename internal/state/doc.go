// Package state provides thread-safe state shared between the background
// refresher and the UI.
//
// # Overview
//
// Store holds the latest account data: the current user (with partner), the
// pending partner requests and the partner's diary entries. The refresher in
// package app writes it; the UI reads Snapshot on every render.
//
//	Producer (poller):               Consumer (UI):
//	  client.Me()                      store.Snapshot()
//	  client.PartnerRequests()              ↓
//	  client.PartnerDiaries()          render views
//	  store.Update() ──── mutex ────→
//
// # Update Semantics
//
// A successful Update replaces the data and clears LastError. A failed Update
// keeps the previous data, records the error and increments
// ConsecutiveFailures, so the UI can keep showing the last good state while
// flagging the backend as offline. Reset clears everything on logout.
//
// Snapshot returns copies of the slices and the error; callers may mutate
// what they receive.
//
// The zero value is ready to use.
package state

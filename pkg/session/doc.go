/*
Package session implements multi-session orchestration for the triage engine.

A Manager loads a session's state, applies one event through an owned
triage.Session, records the posted messages and persists the result. Access to
each session is serialized with a reference-counted local lock and, when
configured, a distributed lock, so the same session can be served safely by
several HTTP or MCP replicas.
*/
package session

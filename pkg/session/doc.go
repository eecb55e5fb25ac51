/*
Package session runs node tests in the background and keeps their reports.

A Manager starts runs asynchronously, persists the report after every result
change through a ports.RunStore, and fans live updates out to subscribers.
Access to a run id is serialized with reference-counted locks, so unused
locks never accumulate.
*/
package session

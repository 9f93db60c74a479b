// Package internal documents the eventdesk internals.
//
// The internal tree is organized by responsibility:
// - store, views, notify: client-side event and session state, forms and toasts
// - apiclient: HTTP client for the events API
// - api, mockapi, storage: the in-memory mock events API
// - domain: event and user models
// - auth, audit, config, metrics, telemetry: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal

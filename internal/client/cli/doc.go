// Package cli provides the interactive eventphotos command-line client.
//
// It wires configuration, the local upload ledger, the API client and an
// interactive REPL. A background watcher pings the server and shows
// online/offline in the prompt.
//
// Commands:
//   - register, login, logout, me
//   - events, newevent
//   - photos <eventId>
//   - upload <eventId> <file or directory>
//
// Uploads go straight to object storage through presigned URLs, several at a
// time. Finished files are recorded locally so a repeated upload of the same
// folder only sends what is new or changed.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli

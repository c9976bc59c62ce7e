// Package domain defines the core business entities of the quiz bot:
// the question catalog, chat users, per-user answer records, and the
// per-user delivery session state.
package domain

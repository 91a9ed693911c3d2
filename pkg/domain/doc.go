// Package domain holds the data model of the decision-tree conversation
// system: tree documents, nodes and options, recorded history entries,
// conversation documents, and the legacy flat transcript format.
//
// Two document kinds exist from the point of ingestion onward:
//
//   - TreeDocument / ConversationDocument: the current schema. A tree is
//     immutable during a run; a conversation grows by appending
//     HistoryEntry values and is persisted whole.
//   - LegacyDocument: a flat role/content transcript. Import-only; it is
//     converted into a ConversationDocument exactly once.
package domain

// Package conversation groups the conversation state stores. Every backend
// implements dao.Service[string, state.Conversation] and reports a missing
// conversation with dao.ErrNotFound.
package conversation

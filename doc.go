// Package turnflow provides a multi-step conversation flow controller and a
// ready-made booking dialog driven by an NLU classifier.
//
// A flow is an ordered list of steps. Each turn of a conversation resumes the
// step the conversation is parked on, runs it, and advances, restarts or
// ends the flow depending on the step's declared outcome. Conversation state
// lives in a pluggable store and replies go out through a pluggable channel:
//
//   - runtime/controller – turn handling, state persistence and reply delivery
//   - dialog/maindialog – the booking flow (intro, confirm, act, final)
//   - service/classifier – LUIS, Wit.ai and keyword classifiers
//   - service/dao/conversation – memory, fs, redis, blob and SQL stores
//   - service/processor – queue driven turn workers
//
// End-users typically interact with the library via the Service façade
// exposed by the root package:
//
//	srv, _ := turnflow.New(ctx)
//	report, _ := srv.HandleTurn(ctx, "conversation-1", "hello")
//
// For more details see the individual sub-packages.
package turnflow

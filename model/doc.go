// Package model contains flow definitions and the values exchanged between
// the flow controller and flow steps.
//
// A Flow is an ordered list of Steps. Each Step inspects the conversation
// scratch together with the incoming turn and returns an Outcome telling the
// controller whether to wait for more input, advance, restart or end the
// flow. Persistent per-conversation state lives in the `state` sub-package.
package model

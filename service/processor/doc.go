// Package processor hosts the workers that drain inbound turns from a queue
// and hand each one to the flow controller. Retryable failures are returned
// to the queue; everything else is acknowledged so that a broken turn does not
// block the conversation.
package processor

// Package assistant drives a conversation with a remote assistant backend.
//
// A Controller owns one thread. SendMessage posts the user's text, starts a
// run and polls it at a fixed interval until the run either completes, in
// which case the messages the caller has not yet seen are returned, or asks
// for tool outputs, in which case the pending tool calls are returned and
// SendToolOutputs resumes the same run.
//
// Flow:
//
//	create message -> create run -> poll ... -> completed -> list messages -> TrimToNew
//	                                         -> requires_action -> caller runs tools -> SendToolOutputs -> poll ...
//
// At most one flow runs per controller. A second call while one is in
// progress, or while a run waits for tool outputs, fails with ErrAlreadyActive.
package assistant

// Package workout implements the resumable workout execution state machine.
//
// A workout runs prep -> rep -> rest -> rep -> ... -> completed, with every
// completed phase appended as a step to a durable execution log. The machine
// never trusts in-memory state across interruptions: after an app kill,
// crash or network loss, NewMachine replays the log and resumes in exactly
// the phase after the last completed one, with a fresh full countdown.
//
// Countdown expiry is evaluated against wall-clock timestamps on each poll,
// not a tick counter, so a suspended host process loses no time - the next
// poll observes the expiry and completes the phase with its real elapsed
// duration.
package workout

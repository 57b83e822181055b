package domain

import "errors"

var (
	// ErrDuplicateTask indicates an idempotency-key collision on create.
	// Callers treat it as a skip, never as a failure.
	ErrDuplicateTask = errors.New("task already exists for this user, type and window")

	// ErrTaskNotFound indicates the referenced task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotPending indicates a pending-only operation (cancel, delete)
	// raced with a dispatcher claim or a terminal transition.
	ErrTaskNotPending = errors.New("task is no longer pending")

	// ErrRecipientBlocked is returned by the message transport when the
	// recipient has permanently blocked the bot.
	ErrRecipientBlocked = errors.New("recipient blocked the bot")
)

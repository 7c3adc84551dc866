package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrEmptyName          = fmt.Errorf("participant name is required")
	ErrNameTaken          = fmt.Errorf("participant name already taken")
	ErrUnknownParticipant = fmt.Errorf("unknown participant")
	ErrUnknownSender      = fmt.Errorf("sender is not in the room")
	ErrInvalidMessage     = fmt.Errorf("invalid message payload")
	ErrMessageNotFound    = fmt.Errorf("message not found")
	ErrNotMessageAuthor   = fmt.Errorf("requester is not the message author")
)

package telegram

import "errors"

// ErrBotBlocked marks a permanently unreachable recipient
var ErrBotBlocked = errors.New("bot blocked by recipient")

package feed

import "github.com/mcoot/charsheet/internal/storage"

// ErrClosed is returned when subscribing to a closed broker
var ErrClosed = storage.ErrClosed

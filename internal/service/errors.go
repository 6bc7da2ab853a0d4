package service

import (
	"errors"

	"github.com/nurpe/mplads-works/internal/query"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidFilter    = query.ErrInvalidFilter
	ErrStoreUnavailable = errors.New("store unavailable")
)

package model

import "errors"

var ErrRetryNotFound = errors.New("confirm retry entry not found")

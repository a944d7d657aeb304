package model

import "errors"

var (
	ErrSKUNotFound = errors.New("sku not found")
	ErrSKUExists   = errors.New("sku already exists")
)

package catalog

import "errors"

var (
	ErrNotFound = errors.New("car not found")
	ErrNotOwner = errors.New("car belongs to another hoster")
)

package repository

import (
	"errors"
	"fmt"
)

var (
	ErrShowNotFound      = errors.New("show not found")
	ErrInvalidTransition = errors.New("invalid show status transition")
)

const keyPrefix = "occupancy"

func key(parts ...any) string {
	k := keyPrefix
	for _, p := range parts {
		k += fmt.Sprintf(":%v", p)
	}
	return k
}

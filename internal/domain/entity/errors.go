package entity

import "errors"

var (
	ErrEmptyGoal     = errors.New("goal is empty")
	ErrNoActiveTask  = errors.New("no active navigation")
	ErrElementGone   = errors.New("element is no longer on the page")
	ErrUnknownAction = errors.New("unknown control action")
)

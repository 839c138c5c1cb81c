package models

import "errors"

var (
	ErrRedisConnection = errors.New("redis connection error")
	ErrRedisGet        = errors.New("redis get error")
	ErrRedisSet        = errors.New("redis set error")
	ErrRedisDelete     = errors.New("redis delete error")
)

var (
	ErrAuthorizationDenied = errors.New("email is not authorized for admin access")
	ErrCredentialRejected  = errors.New("invalid email or password")
	ErrBackendUnavailable  = errors.New("auth backend unavailable")
	ErrSessionAbsent       = errors.New("no session")
	ErrSessionExpired      = errors.New("session expired")
	ErrSessionInactive     = errors.New("session inactive too long")
	ErrUnexpectedInternal  = errors.New("unexpected internal error")
)

var (
	ErrDatabaseConnection = errors.New("database connection error")
	ErrDatabaseQuery      = errors.New("database query error")
	ErrDatabaseInsert     = errors.New("database insert error")
	ErrRecordNotFound     = errors.New("record not found")
	ErrInvalidParams      = errors.New("invalid parameters")
)

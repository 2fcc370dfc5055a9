package util

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user does not exist or was not found")
	ErrEventNotFound      = errors.New("event does not exist or was not found")
	ErrAssistanceNotFound = errors.New("assistance does not exist or was not found")
	ErrEmailRegistered    = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotEventOwner      = errors.New("authenticated user is not the owner of the event")
	ErrEventNotFinished   = errors.New("event has not finished yet")
	ErrInvalidPunctuation = errors.New("punctuation must be a number between 0 and 10")
	ErrInvalidEventDates  = errors.New("event start date must be before event end date")
	ErrSelfMessage        = errors.New("you cannot send a message to yourself")
	ErrInvalidImage       = errors.New("invalid image file")
	ErrPasswordTooShort   = errors.New("password must have at least 8 characters")
	ErrInvalidDate        = errors.New("date must use the YYYY-MM-DD format")
	ErrEmptyMessage       = errors.New("message content cannot be empty")
	ErrImageTooLarge      = errors.New("image exceeds the maximum allowed size")
)

// StorageError 数据库操作失败，与业务结果区分开
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// WrapStorage err 为 nil 时返回 nil
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

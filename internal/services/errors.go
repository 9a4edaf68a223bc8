package services

import "errors"

var (
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("access to contract denied")
	ErrInvalidContractID  = errors.New("invalid contract id")
	ErrContractNotFound   = errors.New("contract not found")
	ErrStoredFileNotFound = errors.New("stored contract file not found")
)

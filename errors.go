package kvstore

import "github.com/horockey/kvstore/internal/model"

type (
	KeyNotFoundError = model.KeyNotFoundError
	ValidationError  = model.ValidationError
	ConnectionError  = model.ConnectionError
	UnknownError     = model.UnknownError
)

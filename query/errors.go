package query

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeNotFound     = "NOT_FOUND"
	textCodeInvalidInput = "INVALID_INPUT"
)

func notFound(err error, message string) error {
	return goerrors.Wrap(err, goerrors.CategoryNotFound, message).
		WithCode(goerrors.CodeNotFound).
		WithTextCode(textCodeNotFound)
}

func invalidInput(err error, message string) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, message).
		WithCode(goerrors.CodeBadRequest).
		WithTextCode(textCodeInvalidInput)
}

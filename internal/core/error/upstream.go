package errx

import (
	"context"
	"errors"
	"net/http"
)

// WrapCRM maps CRM transport or API errors to a 502, or 504 on deadline.
func WrapCRM(err error) error {
	return wrapUpstream(err, CRMErrorMessage)
}

// WrapLLM maps language model errors to a 502, or 504 on deadline.
func WrapLLM(err error) error {
	return wrapUpstream(err, LLMErrorMessage)
}

func wrapUpstream(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(err, http.StatusGatewayTimeout, message)
	}
	return New(err, http.StatusBadGateway, message)
}

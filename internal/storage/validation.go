package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var errNilContext = errors.New("context cannot be nil")

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return errNilContext
	}
	return nil
}

func validateString(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

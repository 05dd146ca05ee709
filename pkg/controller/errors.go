package controller

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/vanderheijden86/execgraph/pkg/model"
)

// FetchError wraps a failed fetch with its source and token.
type FetchError struct {
	Token Token
	Cause error
	Time  time.Time
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch failed: %v", e.Token.Source, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// safeFetch runs fn and converts both errors and panics into a *FetchError.
func safeFetch(tok Token, fn func() (model.GraphData, error)) (data model.GraphData, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = model.GraphData{}
			err = &FetchError{
				Token: tok,
				Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
				Time:  time.Now(),
			}
		}
	}()
	data, err = fn()
	if err != nil {
		return model.GraphData{}, &FetchError{Token: tok, Cause: err, Time: time.Now()}
	}
	return data, nil
}

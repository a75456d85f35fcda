// Package errors provides examples of structured error handling in colbridge.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/colbridge/pkg/errors"
)

// Example demonstrates basic error creation and details.
func Example() {
	err := errors.New(errors.ErrorTypeValidation, "chunk must contain at least one column vector").
		WithDetail("columns", 0)

	fmt.Println(err.Error())

	// Output:
	// validation: chunk must contain at least one column vector
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeData, "failed to read record batch").
		WithDetail("batch", 3)

	if errors.IsType(err, errors.ErrorTypeData) {
		fmt.Println("data error")
	}
	fmt.Println(err.Unwrap() == io.ErrUnexpectedEOF)

	// Output:
	// data error
	// true
}

// ExampleRecover converts an indexing panic into a returned error.
func ExampleRecover() {
	read := func(values []int32, row int) (v int32, err error) {
		defer errors.Recover(&err)
		if row < 0 || row >= len(values) {
			panic(errors.OutOfRange("row", row, len(values)))
		}
		return values[row], nil
	}

	_, err := read([]int32{1, 2, 3}, 5)
	fmt.Println(err)
	fmt.Println(errors.IsType(err, errors.ErrorTypeOutOfRange))

	// Output:
	// out_of_range: row 5 out of range [0, 3)
	// true
}

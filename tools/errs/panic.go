package errs

import "fmt"

func ErrPanic(r any) error {
	if r == nil {
		return nil
	}
	return ErrInternal.WithDetail(fmt.Sprint(r)).Wrap()
}

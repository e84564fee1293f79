package errs

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CodeError 统一错误载体：code 用于程序判断，msg 给人看，detail 追加上下文。
// 域错误（NotFound/Ambiguous 等）调用方不得重试；传输类错误（store/timeout）可重试。
type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

func (e *CodeError) clone() *CodeError {
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: e.Detail}
}

// WithDetail 返回带附加说明的副本（不改原值，预定义错误是共享的）。
func (e *CodeError) WithDetail(detail string) *CodeError {
	c := e.clone()
	if c.Detail == "" {
		c.Detail = detail
	} else {
		c.Detail += ", " + detail
	}
	return c
}

// Wrap 带堆栈抛出（github.com/pkg/errors）。
func (e *CodeError) Wrap() error {
	return errors.WithStack(e)
}

// WrapMsg 附加 kv 上下文后带堆栈抛出。
func (e *CodeError) WrapMsg(msg string, kv ...any) error {
	return errors.WithStack(e.WithDetail(toDetail(msg, kv)))
}

// Is 支持 errors.Is(err, ErrXxx)：按 code 比较。
func (e *CodeError) Is(target error) bool {
	var ce *CodeError
	if !stderrors.As(target, &ce) {
		return false
	}
	return e.Code == ce.Code
}

// CodeOf 取出错误链里的业务码；非 CodeError 返回 0。
func CodeOf(err error) int {
	var ce *CodeError
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	return 0
}

// Wrap 普通错误带堆栈。
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(err)
}

// WrapMsg 普通错误带堆栈和 kv 上下文。
func WrapMsg(err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, toDetail(msg, kv))
}

// New 快捷构造一个内部错误。
func New(msg string, kv ...any) error {
	return errors.New(toDetail(msg, kv))
}

func toDetail(msg string, kv []any) string {
	if len(kv) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		b.WriteString(", ")
		b.WriteString(toString(kv[i]))
		b.WriteString("=")
		if i+1 < len(kv) {
			b.WriteString(toString(kv[i+1]))
		}
	}
	return b.String()
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case error:
		return x.Error()
	case nil:
		return "<nil>"
	default:
		return fmt.Sprint(v)
	}
}

package keys

import "strings"

// 存储路径里非法的字符（users/<key> 命名空间），统一替换为占位符。
// '/' 虽不在历史列表里，但它是路径分隔符，同样必须替换。
const placeholder = '_'

var illegal = [...]rune{'@', '.', '+', '#', '$', '[', ']', '/'}

// Canonical 把任意人工输入的标识（邮箱/登录ID/显示名）转成唯一的存储键。
// 纯函数：trim → 小写 → 非法字符替换。幂等，无 I/O。
// 所有派生 key 的地方必须且只能走这里，否则两个组件会对"同一个用户"产生分歧。
func Canonical(identifier string) string {
	s := strings.ToLower(strings.TrimSpace(identifier))
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isIllegal(r) {
			b.WriteRune(placeholder)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Equal 判断两个标识是否落在同一个存储键上。
func Equal(a, b string) bool {
	return Canonical(a) == Canonical(b)
}

func isIllegal(r rune) bool {
	for _, x := range illegal {
		if r == x {
			return true
		}
	}
	return false
}

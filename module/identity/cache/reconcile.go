package cache

import (
	"ClassBank/module/identity/model"
)

// 服务端在无法从请求上下文确信"这条就是我"时（邮箱/登录ID漂移），
// 会返回一份脱敏/减量的 diet 投影：重型字段（流水、收件箱）缺失。
// 客户端拿它整体覆盖本地明细会把已加载的重型数据悄悄抹掉——这里的合并
// 策略保证重型字段永不回退。这是一个冲突消解策略，不是无损合并：
// 用"轻字段可能略旧"换"重字段保证不丢"。永不报错，永远给出结果。

// IsDiet 判定：新取回的记录流水为空、而本地明细的流水非空。
func IsDiet(local, fresh *model.UserRecord) bool {
	if local == nil || fresh == nil {
		return false
	}
	return len(fresh.Transactions) == 0 && len(local.Transactions) > 0
}

// Reconcile 把一次全量刷新取回的 fresh 合并进本地明细 local。
//   - local 为空：fresh 原样采纳（首轮刷新）
//   - fresh 为空：保持 local（刷新失败时调用方不该走到这，防御一下）
//   - diet：重型字段保留 local 原值；其余字段取 fresh，fresh 为空的标量回落 local
//   - 非 diet：浅合并，fresh 优先；fresh 为空的标量仍回落 local
func Reconcile(local, fresh *model.UserRecord) *model.UserRecord {
	if local == nil {
		return fresh
	}
	if fresh == nil {
		return local
	}

	out := *fresh // 浅拷贝 fresh 作底

	// 标量回落：fresh 留空的字段用本地值补
	fallback := func(dst *string, localVal string) {
		if *dst == "" {
			*dst = localVal
		}
	}
	fallback(&out.Key, local.Key)
	fallback(&out.LoginID, local.LoginID)
	fallback(&out.Email, local.Email)
	fallback(&out.Name, local.Name)
	fallback(&out.Type, local.Type)
	fallback(&out.Role, local.Role)
	fallback(&out.JobTitle, local.JobTitle)
	fallback(&out.Status, local.Status)

	if IsDiet(local, fresh) {
		// 重型字段原样保留本地，diet 的空值不算数
		out.Transactions = local.Transactions
		out.Notifications = local.Notifications
		if len(fresh.Products) == 0 {
			out.Products = local.Products
		}
		if len(fresh.LinkedAccounts) == 0 {
			out.LinkedAccounts = local.LinkedAccounts
		}
		// diet 投影不带余额时别把余额清零
		if fresh.BalanceKRW == 0 && fresh.BalanceUSD == 0 {
			out.BalanceKRW = local.BalanceKRW
			out.BalanceUSD = local.BalanceUSD
		}
	}
	return &out
}

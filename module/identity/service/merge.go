package service

import (
	"context"
	"sort"
	"time"

	"ClassBank/logger"
	mongoutil "ClassBank/data/database/mgo/mongoutil"
	"ClassBank/module/identity/model"
	"ClassBank/tools/errs"
	"ClassBank/tools/keys"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// 重复账户合并（管理操作，幂等）。
//
// 历史上同一个人可能在多个 key 下各有一条记录（canonicalize 规则变更前建的号、
// 大小写漂移等）。按"可派生邮箱的 canonical key"分组，把每组归并进 canonical key
// 那条记录，同一事务里删掉其余来源——中间状态不可被其它会话观察到。
//
// 余额取各副本的最大值而不是求和：重复记录是同一真实余额的漂移副本，不是独立资金。

type MergeReport struct {
	Groups  int      // 实际归并的组数
	Removed []string // 被删除的非 canonical key
}

// GroupDuplicates 按可派生邮箱分组；没有邮箱的记录无从判定重复，跳过。纯函数。
func GroupDuplicates(records []*model.UserRecord) map[string][]*model.UserRecord {
	groups := make(map[string][]*model.UserRecord)
	for _, rec := range records {
		if rec.Email == "" {
			continue
		}
		k := keys.Canonical(rec.Email)
		groups[k] = append(groups[k], rec)
	}
	for k, g := range groups {
		if len(g) < 2 {
			delete(groups, k) // 单条不算重复
		}
	}
	return groups
}

// BuildMergedRecord 把一组漂移副本归并成落在 canonKey 上的一条。纯函数。
//   - 数值余额：逐字段取最大值（绝不求和）
//   - 流水/通知/商品：拼接（按 id 去重，按时间排序）
//   - 状态：取最具体的非 pending 值
//   - 轻量标量：优先已落在 canonical key 上那条的非空值，否则第一个非空
//   - 关联账户：并集
func BuildMergedRecord(canonKey string, group []*model.UserRecord) *model.UserRecord {
	// canonical key 上已有的记录排第一位，它的标量字段优先级最高
	ordered := make([]*model.UserRecord, 0, len(group))
	for _, r := range group {
		if r.Key == canonKey {
			ordered = append(ordered, r)
		}
	}
	for _, r := range group {
		if r.Key != canonKey {
			ordered = append(ordered, r)
		}
	}

	merged := &model.UserRecord{Key: canonKey}
	pickStr := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
		}
	}

	txSeen := map[string]bool{}
	nfSeen := map[string]bool{}
	pdSeen := map[string]bool{}
	linkSeen := map[string]bool{}

	for _, r := range ordered {
		pickStr(&merged.LoginID, r.LoginID)
		pickStr(&merged.Email, r.Email)
		pickStr(&merged.Name, r.Name)
		pickStr(&merged.Type, r.Type)
		pickStr(&merged.Role, r.Role)
		pickStr(&merged.JobTitle, r.JobTitle)
		pickStr(&merged.PinHash, r.PinHash)

		if r.BalanceKRW > merged.BalanceKRW {
			merged.BalanceKRW = r.BalanceKRW
		}
		if r.BalanceUSD > merged.BalanceUSD {
			merged.BalanceUSD = r.BalanceUSD
		}

		if model.StatusRank(r.Status) > model.StatusRank(merged.Status) {
			merged.Status = r.Status
		}

		for _, tx := range r.Transactions {
			if !txSeen[tx.ID] {
				txSeen[tx.ID] = true
				merged.Transactions = append(merged.Transactions, tx)
			}
		}
		for _, nf := range r.Notifications {
			if !nfSeen[nf.ID] {
				nfSeen[nf.ID] = true
				merged.Notifications = append(merged.Notifications, nf)
			}
		}
		for _, p := range r.Products {
			if !pdSeen[p.ID] {
				pdSeen[p.ID] = true
				merged.Products = append(merged.Products, p)
			}
		}
		for _, l := range r.LinkedAccounts {
			if l != canonKey && !linkSeen[l] {
				linkSeen[l] = true
				merged.LinkedAccounts = append(merged.LinkedAccounts, l)
			}
		}

		if merged.CreateTime.IsZero() || (!r.CreateTime.IsZero() && r.CreateTime.Before(merged.CreateTime)) {
			merged.CreateTime = r.CreateTime
		}
	}

	sort.Slice(merged.Transactions, func(i, j int) bool {
		return merged.Transactions[i].Timestamp < merged.Transactions[j].Timestamp
	})
	sort.Slice(merged.Notifications, func(i, j int) bool {
		return merged.Notifications[i].CreatedAt < merged.Notifications[j].CreatedAt
	})
	sort.Strings(merged.LinkedAccounts)

	if merged.Status == "" {
		merged.Status = model.StatusPending
	}
	merged.UpdateTime = time.Now()
	return merged
}

// MergeDuplicates 扫描全表并归并所有重复组。重复执行是 no-op。
func MergeDuplicates(ctx context.Context, cli *mongoutil.Client) (*MergeReport, error) {
	u := model.UserRecord{}
	coll := cli.GetDB().Collection(u.GetTableName())

	cur, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("merge scan", "err", err)
	}
	var all []*model.UserRecord
	for cur.Next(ctx) {
		var rec model.UserRecord
		if err := cur.Decode(&rec); err != nil {
			continue
		}
		cp := rec
		all = append(all, &cp)
	}
	_ = cur.Close(ctx)
	if err := cur.Err(); err != nil {
		return nil, errs.ErrStoreUnavailable.WrapMsg("merge scan", "err", err)
	}

	report := &MergeReport{}
	for canonKey, group := range GroupDuplicates(all) {
		merged := BuildMergedRecord(canonKey, group)

		var remove []string
		for _, r := range group {
			if r.Key != canonKey {
				remove = append(remove, r.Key)
			}
		}

		// 写目标 + 删来源必须同一事务落地
		err := cli.WithTransaction(ctx, func(sc mongo.SessionContext) error {
			if _, err := coll.ReplaceOne(sc, bson.M{"_id": canonKey}, merged,
				options.Replace().SetUpsert(true)); err != nil {
				return err
			}
			if len(remove) > 0 {
				if _, err := coll.DeleteMany(sc, bson.M{"_id": bson.M{"$in": remove}}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return report, errs.WrapMsg(err, "merge group", "key", canonKey)
		}

		report.Groups++
		report.Removed = append(report.Removed, remove...)
		logger.Info("merged duplicate accounts",
			zap.String("canonical", canonKey), zap.Strings("removed", remove))
	}
	return report, nil
}

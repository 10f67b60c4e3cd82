package pass

import (
	"context"
	"time"

	"github.com/John-Robertt/ctfetch/internal/domain"
)

// Handler 处理单个条目并返回带标签的结果（Success 或 Failure+原因）。
//
// 约束：Handler 不得 panic 或中止批次；任何错误都必须落到返回的 ItemResult 里。
// 条目之间相互独立，因此未来可以改为 worker pool 而不改变这个契约。
type Handler func(ctx context.Context, name string) domain.ItemResult

// Loop 按顺序逐个处理 names，把结果追加到 rr.Items。
//
// 不变量：每个 name 恰好产生一个 ItemResult（成功数 + 失败数 == len(names)）。
// ctx 取消后剩余条目仍会被交给 handle（通常立即以 transport_error 失败），
// 从而保持上述不变量。
func Loop(ctx context.Context, names []string, handle Handler, rr *domain.RunReport, obs Observer) {
	total := len(names)
	for i, name := range names {
		started := time.Now()
		res := handle(ctx, name)
		res.Name = name
		if res.Status != domain.StatusSuccess {
			res.Status = domain.StatusFailed
		}
		rr.Items = append(rr.Items, res)
		if obs != nil {
			obs.OnItemDone(i+1, total, res, time.Since(started))
		}
	}
}

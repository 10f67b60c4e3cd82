package pass

import (
	"time"

	"github.com/John-Robertt/ctfetch/internal/domain"
)

// Observer 把“进度/条目结果”从批处理循环中解耦出来。
//
// pass 包只发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
type Observer interface {
	// OnStart 在输入读取成功、开始下载前调用。
	OnStart(rr *domain.RunReport, total int)
	// OnItemDone 在每个条目分类完成后调用（idx 从 1 开始）。
	OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration)
}

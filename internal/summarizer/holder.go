package summarizer

import "sync"

// Holder 延迟构建后端并缓存结果，构建失败也会被缓存，
// 避免每次请求都重复初始化重型依赖。
type Holder struct {
	build   func() (Backend, error)
	once    sync.Once
	backend Backend
	err     error
}

// NewHolder 创建延迟构建容器。
func NewHolder(build func() (Backend, error)) *Holder {
	return &Holder{build: build}
}

// Get 返回后端实例，首次调用时触发构建。
func (h *Holder) Get() (Backend, error) {
	h.once.Do(func() {
		if h.build == nil {
			return
		}
		h.backend, h.err = h.build()
	})
	return h.backend, h.err
}

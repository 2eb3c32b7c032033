// 提供固定容量的泛型滑动窗口
package container

// Window 固定容量滑动窗口
// 功能：保存最近capacity个元素，写满后新元素覆盖最旧元素
// 说明：用于按时间窗统计的场合，元素按进入顺序读取
type Window[T any] struct {
	data []T // 环形缓冲区
	head int // 最旧元素所在下标
	size int // 当前元素数量
}

// NewWindow 创建滑动窗口
// 功能：初始化一个容量为capacity的空窗口
// 参数：capacity-窗口容量，必须为正数
// 返回：初始化完成的窗口实例
func NewWindow[T any](capacity int) *Window[T] {
	if capacity <= 0 {
		panic("container: window capacity must be positive")
	}
	return &Window[T]{data: make([]T, 0, capacity)}
}

// Push 写入一个元素
// 功能：将元素追加到窗口尾部，窗口已满时覆盖最旧元素
// 参数：v-写入的元素
func (w *Window[T]) Push(v T) {
	if len(w.data) < cap(w.data) {
		w.data = append(w.data, v)
		w.size++
		return
	}
	w.data[w.head] = v
	w.head = (w.head + 1) % cap(w.data)
}

// Len 获取当前元素数量
// 返回：窗口内的元素个数
func (w *Window[T]) Len() int {
	return w.size
}

// Cap 获取窗口容量
// 返回：窗口能容纳的最大元素个数
func (w *Window[T]) Cap() int {
	return cap(w.data)
}

// Full 判断窗口是否已写满
// 返回：true表示窗口内元素数量等于容量
func (w *Window[T]) Full() bool {
	return w.size == cap(w.data)
}

// Clear 清空窗口
// 功能：移除所有元素，保留底层容量
func (w *Window[T]) Clear() {
	w.data = w.data[:0]
	w.head = 0
	w.size = 0
}

// Values 按进入顺序获取所有元素
// 功能：返回从最旧到最新排列的元素副本
// 返回：元素切片，修改返回值不影响窗口内容
func (w *Window[T]) Values() []T {
	out := make([]T, 0, w.size)
	for i := 0; i < w.size; i++ {
		out = append(out, w.data[(w.head+i)%cap(w.data)])
	}
	return out
}

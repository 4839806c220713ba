package middleware

import (
	"context"
	"sync"
	"time"
)

// CounterStore は固定ウィンドウのリクエストカウンタを抽象化する。
// シングルインスタンス構成ではインメモリ実装を、マルチインスタンス構成では
// 外部共有カウンタ（Redis実装）を注入する。
type CounterStore interface {
	// Incr はキーのカウンタをインクリメントし、現在のウィンドウ内の
	// カウント値とウィンドウのリセット時刻を返す。
	// キーに対する最初の呼び出しで新しいウィンドウが開始される。
	Incr(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
}

// windowEntry は1キー分の固定ウィンドウカウンタを保持する。
type windowEntry struct {
	count   int
	resetAt time.Time
}

// MemoryCounterStore はインメモリのCounterStore実装。
// プロセス内で完結し、プロセス間での共有や再起動をまたぐ永続化は行わない。
// シングルインスタンスのデプロイでのみ正確に機能する。
type MemoryCounterStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry

	cleanupInterval time.Duration
	stopCh          chan struct{}
	stopOnce        sync.Once
}

// NewMemoryCounterStore はMemoryCounterStoreを生成する。
// バックグラウンドで期限切れウィンドウのクリーンアップを開始する。
func NewMemoryCounterStore() *MemoryCounterStore {
	s := &MemoryCounterStore{
		entries:         make(map[string]*windowEntry),
		cleanupInterval: 5 * time.Minute,
		stopCh:          make(chan struct{}),
	}

	go s.cleanupLoop()

	return s
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (s *MemoryCounterStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// Incr はキーのカウンタをインクリメントする。
// ウィンドウのリセット時刻を過ぎている場合は新しいウィンドウを開始する。
func (s *MemoryCounterStore) Incr(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || !now.Before(entry.resetAt) {
		entry = &windowEntry{resetAt: now.Add(window)}
		s.entries[key] = entry
	}
	entry.count++

	return entry.count, entry.resetAt, nil
}

// EntryCount は現在保持しているウィンドウエントリ数を返す。テスト用。
func (s *MemoryCounterStore) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// cleanupLoop はバックグラウンドで期限切れウィンドウを定期的にクリーンアップする。
func (s *MemoryCounterStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup はリセット時刻を過ぎたエントリを削除する。
func (s *MemoryCounterStore) cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.entries {
		if !now.Before(entry.resetAt) {
			delete(s.entries, key)
		}
	}
}

// compile-time interface check
var _ CounterStore = (*MemoryCounterStore)(nil)

package adapters

import (
	"context"
	"hash/fnv"
	"sync"

	"portal_backend/internal/feature/auth/domain/entity"
	"portal_backend/internal/feature/auth/usecase"
)

// memoryShardCount は同一トークンへの操作だけを直列化するためのシャード数です。
// 無関係なトークン同士が単一のグローバルロックで競合しないようにします。
const memoryShardCount = 32

// sessionMemory はSessionStoreのプロセス内実装です。プロセス再起動で内容は
// 失われますが、それはこのストアの契約どおりです（耐久トークンが正）。
// グローバル変数ではなくコンストラクタ注入で共有される、プロセス全体で
// 単一のインスタンスとして使います。
type sessionMemory struct {
	shards [memoryShardCount]memoryShard
}

type memoryShard struct {
	mu      sync.RWMutex
	records map[string]*entity.SessionRecord
}

// sessionMemoryがSessionStoreを実装していることをコンパイル時に検証します。
var _ usecase.SessionStore = (*sessionMemory)(nil)

// NewSessionMemory はsessionMemoryの新しいインスタンスを生成します。
func NewSessionMemory() *sessionMemory {
	s := &sessionMemory{}
	for i := range s.shards {
		s.shards[i].records = make(map[string]*entity.SessionRecord)
	}
	return s
}

func (s *sessionMemory) shard(token string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(token))
	return &s.shards[h.Sum32()%memoryShardCount]
}

// Get はトークンのレコードのコピーを返します。
func (s *sessionMemory) Get(_ context.Context, token string) (*entity.SessionRecord, error) {
	sh := s.shard(token)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	rec, ok := sh.records[token]
	if !ok {
		return nil, usecase.ErrSessionNotFound
	}
	return rec.Clone(), nil
}

// Put はレコードを保存または置換します。
func (s *sessionMemory) Put(_ context.Context, rec *entity.SessionRecord) error {
	sh := s.shard(rec.Token)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.records[rec.Token] = rec.Clone()
	return nil
}

// Invalidate はレコードを無効フラグ付きで残します。保留中のリクエストが
// フラグを観測できるよう、物理削除はしません。
func (s *sessionMemory) Invalidate(_ context.Context, token string) error {
	sh := s.shard(token)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[token]
	if !ok {
		return usecase.ErrSessionNotFound
	}
	rec.Valid = false
	return nil
}

// Delete はレコードを削除します。存在しないトークンはエラーになりません。
func (s *sessionMemory) Delete(_ context.Context, token string) error {
	sh := s.shard(token)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	delete(sh.records, token)
	return nil
}

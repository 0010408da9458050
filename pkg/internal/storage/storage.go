// Package storage 聚合存储资源：KV（分享元数据、限流计数）、S3（文件内容）、MQ（事件发布）.
//
// Example:
//
// 初始化
//
//	 ctx := context.Background()
//	 mgr, err := storage.Init(ctx)
//
//		if err != nil {
//		    // 处理错误
//		}
//
// 获取存储客户端
//
//	kvClient := mgr.GetKVClient()
//	s3Client := mgr.GetS3Client()
package storage

import (
	"context"
	"sync"

	kvc "github.com/yeisme/filecodebox/pkg/internal/storage/kv"
	mqc "github.com/yeisme/filecodebox/pkg/internal/storage/mq"
	s3c "github.com/yeisme/filecodebox/pkg/internal/storage/s3"
	flog "github.com/yeisme/filecodebox/pkg/log"
)

// Manager 聚合所有存储资源. MQ 可能为 nil（事件发布未启用）.
type Manager struct {
	KV *kvc.Client
	S3 *s3c.Client
	MQ *mqc.Client
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置. 重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		m := &Manager{}

		// KV
		kvi, e := kvc.NewKVClient(ctx)
		if e != nil {
			err = e

			return
		}

		m.KV = kvi

		// S3
		s3i, e := s3c.New(ctx)
		if e != nil {
			err = e

			return
		}

		m.S3 = s3i

		// MQ（未启用时返回 nil client，不视为错误）
		mqi, e := mqc.New(ctx)
		if e != nil {
			err = e

			return
		}

		m.MQ = mqi

		mgr = m

		flog.Logger().Info().Msg("storage manager initialized")
	})

	return mgr, err
}

// NewManager 以显式的客户端构造 Manager，主要供测试注入使用.
func NewManager(kv *kvc.Client, s3 *s3c.Client, mq *mqc.Client) *Manager {
	return &Manager{KV: kv, S3: s3, MQ: mq}
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// Close 关闭所有存储连接.
func (m *Manager) Close() error {
	var err error

	if m.KV != nil {
		if e := m.KV.Close(); e != nil {
			err = e
		}
	}

	if m.S3 != nil {
		if e := m.S3.Close(); e != nil {
			err = e
		}
	}

	if m.MQ != nil {
		if e := m.MQ.Close(); e != nil {
			err = e
		}
	}

	return err
}

// Package queue 定义消息主题常量与通配模式，供发布/订阅使用.
package queue

// 主题命名规范：fcb.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：share(分享记录)、sweep(过期清理)
// 动作：created/retrieved/expired/cleaned 等

const (
	// 分享生命周期.
	TopicShareCreated   = "fcb.share.created"   // 分享已创建（元数据已写入，文件已落对象存储）
	TopicShareRetrieved = "fcb.share.retrieved" // 分享被成功取件
	TopicShareExpired   = "fcb.share.expired"   // 取件时发现分享已过期（惰性判定）

	// 清理任务.
	TopicSweepCompleted = "fcb.sweep.completed" // 一轮过期清理结束，带统计信息
)

// 主题分组，用于批量操作或权限控制.
var (
	// 分享相关主题集合.
	ShareTopics = []string{
		TopicShareCreated, TopicShareRetrieved, TopicShareExpired,
	}

	// 清理相关主题集合.
	SweepTopics = []string{
		TopicSweepCompleted,
	}
)

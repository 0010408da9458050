package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

// PublishShareCreated 发布 fcb.share.created 事件。
// 在元数据写入 KV、文件落入对象存储后调用，通知下游（统计、审计等）。
// 可通过可选项 opts 注入 TraceID、Producer 等头部信息。
func PublishShareCreated(pub message.Publisher, payload ShareCreatedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicShareCreated, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicShareCreated, msg)
}

// PublishShareRetrieved 发布 fcb.share.retrieved 事件。
func PublishShareRetrieved(pub message.Publisher, payload ShareRetrievedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicShareRetrieved, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicShareRetrieved, msg)
}

// PublishShareExpired 发布 fcb.share.expired 事件。
func PublishShareExpired(pub message.Publisher, payload ShareExpiredPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicShareExpired, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicShareExpired, msg)
}

// PublishSweepCompleted 发布 fcb.sweep.completed 事件。
func PublishSweepCompleted(pub message.Publisher, payload SweepCompletedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicSweepCompleted, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicSweepCompleted, msg)
}

// ParseShareCreated 将 Watermill 消息解析为强类型 Envelope（ShareCreatedPayload）。
func ParseShareCreated(msg *message.Message) (Message[ShareCreatedPayload], error) {
	return ParseWatermillMessage[ShareCreatedPayload](msg)
}

// ParseSweepCompleted 将 Watermill 消息解析为强类型 Envelope（SweepCompletedPayload）。
func ParseSweepCompleted(msg *message.Message) (Message[SweepCompletedPayload], error) {
	return ParseWatermillMessage[SweepCompletedPayload](msg)
}

package domain

import "errors"

var (
	// ErrUserIDAlreadySet 用户ID只能设置一次
	ErrUserIDAlreadySet = errors.New("user id already set")

	// ErrEmptyTranscript 没有可总结的内容
	ErrEmptyTranscript = errors.New("transcript is empty")

	// ErrSummaryFailed 总结失败
	ErrSummaryFailed = errors.New("summary failed")

	// ErrCredentialsUnavailable 两级凭证刷新都失败
	ErrCredentialsUnavailable = errors.New("credentials unavailable")

	// ErrUpstreamClosed 上游会话已关闭
	ErrUpstreamClosed = errors.New("upstream session closed")

	// ErrClientClosed 客户端连接已关闭
	ErrClientClosed = errors.New("client connection closed")
)

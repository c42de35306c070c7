package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrUnknownWorkspaceKind 租户的工作区类型没有对应的数据源策略
var ErrUnknownWorkspaceKind = errors.New("未知的工作区类型")

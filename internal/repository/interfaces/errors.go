package interfaces

import "errors"

// ErrDuplicate 由各存储实现在唯一索引冲突时返回
var ErrDuplicate = errors.New("duplicate key")

// ErrInvalidField 表示集合字段名非法
var ErrInvalidField = errors.New("invalid set field")

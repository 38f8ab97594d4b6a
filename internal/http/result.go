package httpapi

import "vitalsync/internal/domain"

// IngestResult 入库接口响应
type IngestResult struct {
	Success bool                `json:"success"`
	Stats   domain.BatchOutcome `json:"stats"`
}

// QueryResult 查询接口响应
type QueryResult[T any] struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Data    []T  `json:"data"`
}

// ErrorResult 错误响应（对外不暴露内部细节）
type ErrorResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func Fail(message string) ErrorResult {
	return ErrorResult{Success: false, Error: message}
}

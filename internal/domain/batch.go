package domain

// BatchOutcome 单个批次的入库结果统计
// 恒等式: Received = Inserted + Duplicates + Errors（Updated 恒为 0，引擎只做 insert-if-absent，不覆盖）
type BatchOutcome struct {
	Received   int `json:"received"`
	Inserted   int `json:"inserted"`
	Updated    int `json:"updated"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

// Consistent 校验统计恒等式
func (o BatchOutcome) Consistent() bool {
	return o.Received == o.Inserted+o.Duplicates+o.Errors
}

// Clean 批次全部记录均已确认落库或判重（调用方据此推进同步游标）
func (o BatchOutcome) Clean() bool {
	return o.Errors == 0 && o.Consistent()
}

package domain

// DeviceInfo 上报设备的描述信息（随批次携带，落库到每条记录）
type DeviceInfo struct {
	Model      string `json:"model,omitempty"`
	OSVersion  string `json:"osVersion,omitempty"`
	AppVersion string `json:"appVersion,omitempty"`
}

// Empty 三个字段均未填写
func (d *DeviceInfo) Empty() bool {
	return d == nil || (d.Model == "" && d.OSVersion == "" && d.AppVersion == "")
}

package garage

import "time"

// Vehicle 车辆模型。日期/里程相关的可选字段用指针表达“未填写”。
type Vehicle struct {
	ID           string `json:"id"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	LicensePlate string `json:"licensePlate"`
	VIN          string `json:"vin,omitempty"`
	Color        string `json:"color,omitempty"`
	Image        string `json:"image,omitempty"`

	// 保养计划（均为可选）
	NextServiceDate    *time.Time `json:"nextServiceDate,omitempty"`
	NextServiceMileage *int       `json:"nextServiceMileage,omitempty"`
	CurrentMileage     *int       `json:"currentMileage,omitempty"`
}

// ServiceRecord 单条保养记录，始终关联一辆车。
type ServiceRecord struct {
	ID            string    `json:"id"`
	VehicleID     string    `json:"vehicleId"`
	Date          time.Time `json:"date"`
	ServiceType   string    `json:"serviceType"`
	Description   string    `json:"description"`
	Cost          float64   `json:"cost"`
	Mileage       int       `json:"mileage"`
	ServiceCenter string    `json:"serviceCenter"`
	Notes         string    `json:"notes,omitempty"`
}

// User 当前会话用户。未登录时 Store 里为 nil。
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// ReminderSettings 提醒偏好（仅 UI 开关，不做真实投递）。
type ReminderSettings struct {
	Email             bool `json:"email"`
	SMS               bool `json:"sms"`
	Push              bool `json:"push"`
	AdvanceNoticeDays int  `json:"advanceNoticeDays"`
}

func defaultReminderSettings() ReminderSettings {
	return ReminderSettings{
		Email:             true,
		SMS:               false,
		Push:              true,
		AdvanceNoticeDays: 14,
	}
}

// ServiceTypes 保养类型枚举；表单允许选 "Other" 后填自由文本。
var ServiceTypes = []string{
	"Oil Change",
	"Brake Service",
	"Tire Rotation",
	"Alignment",
	"Battery Replacement",
	"Air Filter",
	"Spark Plugs",
	"Transmission Service",
	"Coolant Flush",
	"Fuel System Service",
	"Other",
}

// VehicleInput 新建车辆的入参（id 由 Store 生成）。
type VehicleInput struct {
	Make         string
	Model        string
	Year         int
	LicensePlate string
	VIN          string
	Color        string
	Image        string

	NextServiceDate    *time.Time
	NextServiceMileage *int
	CurrentMileage     *int
}

// VehiclePatch 部分更新：nil 字段表示“不变”。
// ClearNextServiceDate 为 true 时取消已排期的下次保养（优先于 NextServiceDate）。
type VehiclePatch struct {
	Make         *string
	Model        *string
	Year         *int
	LicensePlate *string
	VIN          *string
	Color        *string
	Image        *string

	NextServiceDate      *time.Time
	ClearNextServiceDate bool
	NextServiceMileage   *int
	CurrentMileage       *int
}

// RecordInput 新建保养记录的入参。
type RecordInput struct {
	VehicleID     string
	Date          time.Time
	ServiceType   string
	Description   string
	Cost          float64
	Mileage       int
	ServiceCenter string
	Notes         string
}

// RecordPatch 保养记录的部分更新。
type RecordPatch struct {
	VehicleID     *string
	Date          *time.Time
	ServiceType   *string
	Description   *string
	Cost          *float64
	Mileage       *int
	ServiceCenter *string
	Notes         *string
}
